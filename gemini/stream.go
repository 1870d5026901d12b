package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/fwojciec/chatkit"
	"google.golang.org/genai"
)

// Collect drains a streaming response, forwarding text deltas to onText and
// assembling the final result. Thought parts are skipped.
func Collect(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error], onText func(string)) (chatkit.GenerateResult, error) {
	var (
		text  strings.Builder
		calls []chatkit.ToolCall
	)
	for resp, err := range seq {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chatkit.GenerateResult{}, fmt.Errorf("gemini: %w", ctxErr)
		}
		if err != nil {
			return chatkit.GenerateResult{}, classify(err)
		}
		if resp == nil {
			continue
		}
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && len(resp.Candidates) == 0 {
			return chatkit.GenerateResult{}, fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, p := range resp.Candidates[0].Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			if p.FunctionCall != nil {
				tc, err := toolCall(p.FunctionCall, len(calls))
				if err != nil {
					return chatkit.GenerateResult{}, err
				}
				calls = append(calls, tc)
				continue
			}
			if p.Text != "" {
				text.WriteString(p.Text)
				if onText != nil {
					onText(p.Text)
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return chatkit.GenerateResult{}, fmt.Errorf("gemini: %w", err)
	}
	return chatkit.GenerateResult{Text: text.String(), ToolCalls: calls}, nil
}

func toolCall(fc *genai.FunctionCall, index int) (chatkit.ToolCall, error) {
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return chatkit.ToolCall{}, fmt.Errorf("gemini: marshal args for %s: %w", fc.Name, err)
	}
	id := fc.ID
	if id == "" {
		// The Gemini API does not always assign call IDs.
		id = fmt.Sprintf("call_%d_%s", index, fc.Name)
	}
	return chatkit.ToolCall{ID: id, Name: fc.Name, Arguments: raw}, nil
}

// classify maps credential rejections onto chatkit.ErrInvalidAPIKey.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && invalidKey(apiErr) {
		return fmt.Errorf("gemini: %s: %w", apiErr.Message, chatkit.ErrInvalidAPIKey)
	}
	return fmt.Errorf("gemini: %w", err)
}

func invalidKey(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return strings.Contains(e.Message, "API key not valid")
	}
	return false
}
