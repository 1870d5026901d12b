package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/chatkit"
	oai "github.com/openai/openai-go/v3"
)

// ChunkStream is the subset of the SDK's SSE stream consumed by Collect.
type ChunkStream interface {
	Next() bool
	Current() oai.ChatCompletionChunk
	Err() error
	Close() error
}

// Collect drains a chat completion stream, forwarding content deltas to
// onText. Tool calls are assembled by the SDK accumulator.
func Collect(ctx context.Context, stream ChunkStream, onText func(string)) (chatkit.GenerateResult, error) {
	defer stream.Close()

	acc := oai.ChatCompletionAccumulator{}
	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return chatkit.GenerateResult{}, fmt.Errorf("openai: %w", err)
		}
		chunk := stream.Current()
		if !acc.AddChunk(chunk) {
			return chatkit.GenerateResult{}, fmt.Errorf("openai: inconsistent stream chunk %q", chunk.ID)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onText != nil {
			onText(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chatkit.GenerateResult{}, fmt.Errorf("openai: %w", ctxErr)
		}
		return chatkit.GenerateResult{}, classify(err)
	}
	if err := ctx.Err(); err != nil {
		return chatkit.GenerateResult{}, fmt.Errorf("openai: %w", err)
	}
	if len(acc.Choices) == 0 {
		return chatkit.GenerateResult{}, nil
	}

	msg := acc.Choices[0].Message
	res := chatkit.GenerateResult{Text: msg.Content}
	for i, tc := range msg.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return chatkit.GenerateResult{}, fmt.Errorf("openai: invalid arguments for %s", tc.Function.Name)
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, tc.Function.Name)
		}
		res.ToolCalls = append(res.ToolCalls, chatkit.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return res, nil
}

// classify maps credential rejections onto chatkit.ErrInvalidAPIKey.
func classify(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("openai: %s: %w", apiErr.Message, chatkit.ErrInvalidAPIKey)
		}
	}
	return fmt.Errorf("openai: %w", err)
}
