package chatkit_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/chatkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTurn(text string) chatkit.Turn {
	return chatkit.Turn{Role: chatkit.RoleUser, Text: text}
}

func TestGenerateRequest_Validate_ValidDefaults(t *testing.T) {
	t.Parallel()
	r := chatkit.GenerateRequest{Turns: []chatkit.Turn{userTurn("hello")}}
	assert.NoError(t, r.Validate())
}

func TestGenerateRequest_Validate_ValidToolExchange(t *testing.T) {
	t.Parallel()
	r := chatkit.GenerateRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are helpful.",
		Turns: []chatkit.Turn{
			userTurn("what time is it?"),
			{Role: chatkit.RoleAssistant, ToolCalls: []chatkit.ToolCall{
				{ID: "c1", Name: "clock", Arguments: json.RawMessage(`{}`)},
			}},
			{Role: chatkit.RoleTool, ToolCallID: "c1", ToolName: "clock", Text: "12:00"},
		},
		Tools:     []chatkit.Tool{{Name: "clock", Description: "Current time"}},
		MaxTokens: 1024,
	}
	assert.NoError(t, r.Validate())
}

func TestGenerateRequest_Validate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  chatkit.GenerateRequest
		msg  string
	}{
		{
			name: "no turns",
			req:  chatkit.GenerateRequest{},
			msg:  "at least one turn",
		},
		{
			name: "negative max tokens",
			req:  chatkit.GenerateRequest{Turns: []chatkit.Turn{userTurn("hi")}, MaxTokens: -1},
			msg:  "max_tokens",
		},
		{
			name: "tool calls in user turn",
			req: chatkit.GenerateRequest{Turns: []chatkit.Turn{
				{Role: chatkit.RoleUser, ToolCalls: []chatkit.ToolCall{{ID: "x"}}},
			}},
			msg: "turn 0: tool calls not allowed in user turn",
		},
		{
			name: "tool turn without call id",
			req: chatkit.GenerateRequest{Turns: []chatkit.Turn{
				userTurn("hi"),
				{Role: chatkit.RoleTool, Text: "result"},
			}},
			msg: "turn 1: tool call id required",
		},
		{
			name: "assistant turn with call id",
			req: chatkit.GenerateRequest{Turns: []chatkit.Turn{
				{Role: chatkit.RoleAssistant, ToolCallID: "c1"},
			}},
			msg: "tool call id not allowed in assistant turn",
		},
		{
			name: "unknown role",
			req:  chatkit.GenerateRequest{Turns: []chatkit.Turn{{Role: "system"}}},
			msg:  `unknown role "system"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, chatkit.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
