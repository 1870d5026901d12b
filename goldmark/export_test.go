package goldmark

func StablePrefix(text string) string { return stablePrefix(text) }

func HasUnclosedFence(s string) bool { return hasUnclosedFence(s) }

func (r *Renderer) CachedWidths(messageID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache[messageID]; ok {
		return len(e.byWidth)
	}
	return 0
}
