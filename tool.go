package chatkit

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolKey identifies a plugin. The set is closed; raw names coming from
// generators or persisted preferences go through ParseToolKey.
type ToolKey string

const (
	ToolSearch     ToolKey = "search"
	ToolCalculator ToolKey = "calculator"
	ToolClock      ToolKey = "clock"
)

// ToolKeys lists every known tool key in display order.
func ToolKeys() []ToolKey {
	return []ToolKey{ToolSearch, ToolCalculator, ToolClock}
}

// ParseToolKey validates a raw tool name.
func ParseToolKey(name string) (ToolKey, error) {
	for _, k := range ToolKeys() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownTool)
}

// Tool is the schema sent to the model describing a tool's capabilities.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolDescriptor is an immutable registry entry for a plugin.
type ToolDescriptor struct {
	Key            ToolKey
	Name           string
	Icon           string
	SmallIcon      string
	LoadingMessage string
	ResultMessage  string
	Description    string
	Parameters     json.RawMessage

	// Validate gates enabling the plugin. Nil means always allowed.
	Validate func(ctx context.Context) (bool, error)
	// OnValidationFailed runs when Validate rejects enabling the plugin.
	OnValidationFailed func()
}

// Schema returns the model-facing tool definition.
func (d ToolDescriptor) Schema() Tool {
	return Tool{Name: string(d.Key), Description: d.Description, Parameters: d.Parameters}
}

// ToolRegistry provides synchronous lookups of tool descriptors.
type ToolRegistry interface {
	Tools() []ToolDescriptor
	ToolByKey(key ToolKey) (ToolDescriptor, bool)
}

// ToolUse is a message's tool name resolved at the registry boundary.
// Known is false when the name is outside the ToolKey set or not registered;
// Name then holds the raw identifier for the fallback rendering.
type ToolUse struct {
	Known      bool
	Name       string
	Descriptor ToolDescriptor
}

// ResolveTool resolves a raw tool name. It returns false when name is empty.
func ResolveTool(reg ToolRegistry, name string) (ToolUse, bool) {
	if name == "" {
		return ToolUse{}, false
	}
	key, err := ParseToolKey(name)
	if err != nil {
		return ToolUse{Name: name}, true
	}
	d, ok := reg.ToolByKey(key)
	if !ok {
		return ToolUse{Name: name}, true
	}
	return ToolUse{Known: true, Name: d.Name, Descriptor: d}, true
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolExecutor runs tools. Execute returns error for infrastructure failures.
// ToolResult.IsError indicates tool-reported domain failures sent back to the model.
type ToolExecutor interface {
	Execute(ctx context.Context, key ToolKey, args json.RawMessage) (*ToolResult, error)
}

// ToolResult represents the outcome of a tool execution.
type ToolResult struct {
	Content string
	IsError bool
}
