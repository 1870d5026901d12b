// Package goldmark renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
package goldmark

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/fwojciec/chatkit"
)

const defaultWidth = 80

var _ chatkit.MarkdownRenderer = (*Renderer)(nil)

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow.
func Render(source string, width int, theme chatkit.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	return newPainter(theme).paint([]byte(source), width)
}

// Renderer implements chatkit.MarkdownRenderer. Per message it caches the
// rendering of the stable prefix (everything up to the last paragraph break
// outside a code fence) so streaming deltas only re-render the tail.
type Renderer struct {
	painter *painter

	mu    sync.Mutex
	cache map[string]*entry
}

type entry struct {
	prefix  string
	byWidth map[int]string
}

// NewRenderer returns a Renderer styled with theme.
func NewRenderer(theme chatkit.Theme) *Renderer {
	return &Renderer{
		painter: newPainter(theme),
		cache:   make(map[string]*entry),
	}
}

// Render renders text for messageID. While streaming, an unclosed code
// fence is closed for display only. Rendering never panics: on a parser
// failure the raw text is returned.
func (r *Renderer) Render(text string, streaming bool, messageID string, width int) (out string) {
	if text == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	defer func() {
		if p := recover(); p != nil {
			slog.Error("markdown render failed", "message", messageID, "panic", p)
			out = text
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := stablePrefix(text)
	head := r.head(messageID, prefix, width)
	tail := strings.TrimPrefix(text, prefix)
	tail = strings.TrimLeft(tail, "\n")
	if streaming && hasUnclosedFence(tail) {
		tail += "\n```"
	}
	if strings.TrimSpace(tail) == "" {
		return head
	}
	body := r.painter.paint([]byte(tail), width)
	if head == "" {
		return body
	}
	return strings.TrimRight(head, "\n") + "\n\n" + strings.TrimLeft(body, "\n")
}

// Forget drops the cached rendering for messageID.
func (r *Renderer) Forget(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, messageID)
}

func (r *Renderer) head(messageID, prefix string, width int) string {
	if prefix == "" {
		return ""
	}
	if messageID == "" {
		return r.painter.paint([]byte(prefix), width)
	}
	e, ok := r.cache[messageID]
	if !ok || e.prefix != prefix {
		e = &entry{prefix: prefix, byWidth: make(map[int]string)}
		r.cache[messageID] = e
	}
	if s, ok := e.byWidth[width]; ok {
		return s
	}
	s := r.painter.paint([]byte(prefix), width)
	e.byWidth[width] = s
	return s
}

// stablePrefix returns text up to the last blank-line boundary that is not
// inside a fenced code block.
func stablePrefix(text string) string {
	for end := len(text); ; {
		idx := strings.LastIndex(text[:end], "\n\n")
		if idx <= 0 {
			return ""
		}
		if candidate := text[:idx]; !hasUnclosedFence(candidate) {
			return candidate
		}
		end = idx
	}
}

// hasUnclosedFence counts triple backticks. Inline spans containing a
// literal fence are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
