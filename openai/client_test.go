package openai_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingKey(t *testing.T) {
	t.Parallel()
	_, err := openai.New("")
	require.ErrorIs(t, err, chatkit.ErrInvalidAPIKey)
}

func TestConvertTurns(t *testing.T) {
	t.Parallel()
	got := openai.ConvertTurns([]chatkit.Turn{
		{Role: chatkit.RoleUser, Text: "what is 2*3"},
		{Role: chatkit.RoleAssistant, ToolCalls: []chatkit.ToolCall{{
			ID: "c1", Name: "calculator", Arguments: json.RawMessage(`{"expression":"2*3"}`),
		}}},
		{Role: chatkit.RoleTool, ToolCallID: "c1", ToolName: "calculator", Text: "6"},
		{Role: chatkit.RoleAssistant, Text: "six"},
	})
	require.Len(t, got, 4)

	require.NotNil(t, got[0].OfUser)
	assert.Equal(t, "what is 2*3", got[0].OfUser.Content.OfString.Value)

	require.NotNil(t, got[1].OfAssistant)
	require.Len(t, got[1].OfAssistant.ToolCalls, 1)
	fn := got[1].OfAssistant.ToolCalls[0].OfFunction
	require.NotNil(t, fn)
	assert.Equal(t, "c1", fn.ID)
	assert.Equal(t, "calculator", fn.Function.Name)
	assert.JSONEq(t, `{"expression":"2*3"}`, fn.Function.Arguments)

	require.NotNil(t, got[2].OfTool)
	assert.Equal(t, "c1", got[2].OfTool.ToolCallID)
	assert.Equal(t, "6", got[2].OfTool.Content.OfString.Value)

	require.NotNil(t, got[3].OfAssistant)
	assert.Equal(t, "six", got[3].OfAssistant.Content.OfString.Value)
}

func TestConvertTurns_ToolError(t *testing.T) {
	t.Parallel()
	got := openai.ConvertTurns([]chatkit.Turn{
		{Role: chatkit.RoleTool, ToolCallID: "c1", Text: "division by zero", IsError: true},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "error: division by zero", got[0].OfTool.Content.OfString.Value)
}

func TestConvertTools(t *testing.T) {
	t.Parallel()
	got := openai.ConvertTools([]chatkit.Tool{{
		Name:        "clock",
		Description: "current time",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	}})
	require.Len(t, got, 1)
	fn := got[0].OfFunction
	require.NotNil(t, fn)
	assert.Equal(t, "clock", fn.Function.Name)
	assert.Equal(t, "current time", fn.Function.Description.Value)
	assert.Equal(t, "object", fn.Function.Parameters["type"])
}

func TestConvertTools_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, openai.ConvertTools(nil))
}

func TestBuildParams(t *testing.T) {
	t.Parallel()
	p := openai.BuildParams(chatkit.GenerateRequest{
		SystemPrompt: "be brief",
		Turns:        []chatkit.Turn{{Role: chatkit.RoleUser, Text: "hi"}},
	}, "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", string(p.Model))
	require.Len(t, p.Messages, 2)
	assert.NotNil(t, p.Messages[0].OfSystem)
	assert.NotNil(t, p.Messages[1].OfUser)
	assert.Positive(t, p.MaxCompletionTokens.Value)
}

func TestBuildParams_RequestModelWins(t *testing.T) {
	t.Parallel()
	p := openai.BuildParams(chatkit.GenerateRequest{
		Model:     "gpt-4o",
		MaxTokens: 50,
		Turns:     []chatkit.Turn{{Role: chatkit.RoleUser, Text: "hi"}},
	}, "gpt-4o-mini")
	assert.Equal(t, "gpt-4o", string(p.Model))
	assert.Equal(t, int64(50), p.MaxCompletionTokens.Value)
	require.Len(t, p.Messages, 1)
}
