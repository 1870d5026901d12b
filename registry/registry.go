// Package registry provides the static catalog of models, assistants and
// tools available to the chat client.
package registry

import (
	"context"
	"encoding/json"
	"os"
	"slices"

	"github.com/fwojciec/chatkit"
)

var (
	_ chatkit.ModelRegistry = (*Registry)(nil)
	_ chatkit.ToolRegistry  = (*Registry)(nil)
)

const defaultSystemPrompt = "You are a helpful assistant running in a terminal. Answer concisely and use markdown."

// Registry is an immutable catalog implementing chatkit.ModelRegistry and
// chatkit.ToolRegistry.
type Registry struct {
	models     []chatkit.ModelDescriptor
	assistants []chatkit.Assistant
	tools      []chatkit.ToolDescriptor
}

// Options configures the built-in tool descriptors.
type Options struct {
	// Preferences is consulted by the search validator for SearchRoot.
	Preferences chatkit.PreferencesStore
	// Settings is opened when a plugin cannot be enabled.
	Settings chatkit.Settings
}

// New returns the default catalog.
func New(opts Options) *Registry {
	models := DefaultModels()
	assistants := make([]chatkit.Assistant, len(models))
	for i, m := range models {
		assistants[i] = chatkit.Assistant{
			Key:          chatkit.AssistantKey(m.Key),
			Name:         m.Name,
			BaseModel:    m.Key,
			SystemPrompt: defaultSystemPrompt,
		}
	}
	return NewCatalog(models, assistants, Tools(opts))
}

// NewCatalog builds a Registry from explicit entries.
func NewCatalog(models []chatkit.ModelDescriptor, assistants []chatkit.Assistant, tools []chatkit.ToolDescriptor) *Registry {
	return &Registry{
		models:     slices.Clone(models),
		assistants: slices.Clone(assistants),
		tools:      slices.Clone(tools),
	}
}

// DefaultModels lists the built-in model descriptors.
func DefaultModels() []chatkit.ModelDescriptor {
	all := []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator, chatkit.ToolClock}
	return []chatkit.ModelDescriptor{
		{Key: "gpt-4o-mini", Name: "GPT-4o mini", Icon: "◆", Provider: chatkit.ProviderOpenAI, ModelID: "gpt-4o-mini", Plugins: all},
		{Key: "gpt-4o", Name: "GPT-4o", Icon: "◆", Provider: chatkit.ProviderOpenAI, ModelID: "gpt-4o", Plugins: all},
		{
			Key: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Icon: "✦", Provider: chatkit.ProviderGemini,
			ModelID: "gemini-2.5-flash", Plugins: []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator},
		},
		{Key: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite", Icon: "✧", Provider: chatkit.ProviderGemini, ModelID: "gemini-2.5-flash-lite"},
	}
}

// Tools returns the built-in tool descriptors.
func Tools(opts Options) []chatkit.ToolDescriptor {
	search := chatkit.ToolDescriptor{
		Key:            chatkit.ToolSearch,
		Name:           "File Search",
		Icon:           "🔍",
		SmallIcon:      "⌕",
		LoadingMessage: "Searching files",
		ResultMessage:  "Searched files",
		Description:    "Find files under the configured search root matching a glob pattern (supports **). Optionally filter by a substring of the file contents.",
		Parameters: json.RawMessage(`{
  "type": "object",
  "properties": {
    "pattern": {"type": "string", "description": "Glob pattern relative to the search root, e.g. **/*.md"},
    "contains": {"type": "string", "description": "Only return files whose contents include this text"}
  },
  "required": ["pattern"]
}`),
	}
	if opts.Preferences != nil {
		prefs := opts.Preferences
		search.Validate = func(ctx context.Context) (bool, error) {
			p, err := prefs.Get(ctx)
			if err != nil {
				return false, err
			}
			return isDir(p.SearchRoot), nil
		}
	}
	if opts.Settings != nil {
		search.OnValidationFailed = opts.Settings.Open
	}

	return []chatkit.ToolDescriptor{
		search,
		{
			Key:            chatkit.ToolCalculator,
			Name:           "Calculator",
			Icon:           "🧮",
			SmallIcon:      "±",
			LoadingMessage: "Calculating",
			ResultMessage:  "Calculated",
			Description:    "Evaluate an arithmetic expression exactly. Supports + - * / % parentheses and integer or decimal literals.",
			Parameters: json.RawMessage(`{
  "type": "object",
  "properties": {
    "expression": {"type": "string", "description": "Expression to evaluate, e.g. (2 + 3) * 4.5"}
  },
  "required": ["expression"]
}`),
		},
		{
			Key:            chatkit.ToolClock,
			Name:           "Clock",
			Icon:           "🕒",
			SmallIcon:      "◷",
			LoadingMessage: "Checking the time",
			ResultMessage:  "Checked the time",
			Description:    "Return the current date and time, optionally in an IANA time zone.",
			Parameters: json.RawMessage(`{
  "type": "object",
  "properties": {
    "timezone": {"type": "string", "description": "IANA zone name such as Europe/Warsaw; defaults to local time"}
  }
}`),
		},
	}
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (r *Registry) Models() []chatkit.ModelDescriptor { return slices.Clone(r.models) }

func (r *Registry) ModelByKey(key chatkit.ModelKey) (chatkit.ModelDescriptor, bool) {
	for _, m := range r.models {
		if m.Key == key {
			return m, true
		}
	}
	return chatkit.ModelDescriptor{}, false
}

func (r *Registry) Assistants() []chatkit.Assistant { return slices.Clone(r.assistants) }

func (r *Registry) AssistantByKey(key chatkit.AssistantKey) (chatkit.Assistant, bool) {
	for _, a := range r.assistants {
		if a.Key == key {
			return a, true
		}
	}
	return chatkit.Assistant{}, false
}

func (r *Registry) Tools() []chatkit.ToolDescriptor { return slices.Clone(r.tools) }

func (r *Registry) ToolByKey(key chatkit.ToolKey) (chatkit.ToolDescriptor, bool) {
	for _, d := range r.tools {
		if d.Key == key {
			return d, true
		}
	}
	return chatkit.ToolDescriptor{}, false
}

// DefaultAssistant returns the assistant named by key, falling back to the
// first assistant in the catalog.
func (r *Registry) DefaultAssistant(key chatkit.AssistantKey) (chatkit.Assistant, bool) {
	if a, ok := r.AssistantByKey(key); ok {
		return a, true
	}
	if len(r.assistants) == 0 {
		return chatkit.Assistant{}, false
	}
	return r.assistants[0], true
}
