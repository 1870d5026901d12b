package chatkit

import "context"

// Turn is one entry of the history sent to a Generator.
//   - RoleUser: Text is the human input.
//   - RoleAssistant: Text and/or ToolCalls.
//   - RoleTool: the result of ToolCallID, in Text, with IsError set on failure.
type Turn struct {
	Role       Role
	Text       string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
	IsError    bool
}

// GenerateRequest carries model selection and history for one round.
type GenerateRequest struct {
	Model        string // provider-specific model ID; empty = generator default
	SystemPrompt string
	Turns        []Turn
	Tools        []Tool
	MaxTokens    int // 0 = provider default
}

// GenerateResult is the assembled assistant output of one round.
type GenerateResult struct {
	Text      string
	ToolCalls []ToolCall
}

// Generator streams one assistant round. onText receives text deltas as they
// arrive. Implementations wrap credential failures with ErrInvalidAPIKey and
// return ctx.Err() (wrapped) on cancellation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest, onText func(string)) (GenerateResult, error)
}

// GeneratorFactory builds a Generator for a model using current preferences.
// It returns an error wrapping ErrInvalidAPIKey when no credentials exist.
type GeneratorFactory func(model ModelDescriptor, prefs Preferences) (Generator, error)
