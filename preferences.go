package chatkit

import (
	"context"
	"slices"
)

// Preferences are persisted per-user settings.
type Preferences struct {
	// DefaultPlugins is an ordered set of globally enabled tool keys.
	DefaultPlugins   []ToolKey
	DefaultAssistant AssistantKey
	OpenAIAPIKey     string
	GeminiAPIKey     string
	// SearchRoot is the directory the search plugin is allowed to read.
	SearchRoot string
}

// PreferencesPatch is a partial update. Nil fields are left unchanged.
type PreferencesPatch struct {
	DefaultPlugins   *[]ToolKey
	DefaultAssistant *AssistantKey
	OpenAIAPIKey     *string
	GeminiAPIKey     *string
	SearchRoot       *string
}

// Apply returns p with the non-nil fields of patch applied.
func (patch PreferencesPatch) Apply(p Preferences) Preferences {
	if patch.DefaultPlugins != nil {
		p.DefaultPlugins = slices.Clone(*patch.DefaultPlugins)
	}
	if patch.DefaultAssistant != nil {
		p.DefaultAssistant = *patch.DefaultAssistant
	}
	if patch.OpenAIAPIKey != nil {
		p.OpenAIAPIKey = *patch.OpenAIAPIKey
	}
	if patch.GeminiAPIKey != nil {
		p.GeminiAPIKey = *patch.GeminiAPIKey
	}
	if patch.SearchRoot != nil {
		p.SearchRoot = *patch.SearchRoot
	}
	return p
}

// PluginsPatch builds a patch that replaces DefaultPlugins.
func PluginsPatch(keys []ToolKey) PreferencesPatch {
	keys = slices.Clone(keys)
	if keys == nil {
		keys = []ToolKey{}
	}
	return PreferencesPatch{DefaultPlugins: &keys}
}

// PreferencesStore persists Preferences.
type PreferencesStore interface {
	Get(ctx context.Context) (Preferences, error)
	Set(ctx context.Context, patch PreferencesPatch) error
}

// EnablePlugin appends key to plugins unless it is already present.
// The input slice is never modified.
func EnablePlugin(plugins []ToolKey, key ToolKey) []ToolKey {
	if slices.Contains(plugins, key) {
		return slices.Clone(plugins)
	}
	return append(slices.Clone(plugins), key)
}

// DisablePlugin returns plugins without any occurrence of key.
// The input slice is never modified.
func DisablePlugin(plugins []ToolKey, key ToolKey) []ToolKey {
	out := make([]ToolKey, 0, len(plugins))
	for _, k := range plugins {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

// EnabledTools returns the plugins from prefs that model supports, in
// preference order.
func EnabledTools(prefs Preferences, model ModelDescriptor) []ToolKey {
	var out []ToolKey
	for _, k := range prefs.DefaultPlugins {
		if model.SupportsPlugin(k) && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
