package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/chatkit"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatkit.Generator = (*Client)(nil)

// Client implements [chatkit.Generator] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the default model ID used when a request leaves it empty.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing api key: %w", chatkit.ErrInvalidAPIKey)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Generate streams one assistant round from the Gemini API.
func (c *Client) Generate(ctx context.Context, req chatkit.GenerateRequest, onText func(string)) (chatkit.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return chatkit.GenerateResult{}, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	contents := ConvertTurns(req.Turns)
	seq := c.client.Models.GenerateContentStream(ctx, model, contents, BuildConfig(req))
	return Collect(ctx, seq, onText)
}

// BuildConfig maps request options onto the generation config.
func BuildConfig(req chatkit.GenerateRequest) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	return config
}

// ConvertTurns converts chatkit turns to genai Contents.
// Exported for testing.
func ConvertTurns(turns []chatkit.Turn) []*genai.Content {
	var result []*genai.Content
	for _, t := range turns {
		switch t.Role {
		case chatkit.RoleUser:
			result = append(result, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: t.Text}},
			})
		case chatkit.RoleAssistant:
			result = append(result, &genai.Content{
				Role:  genai.RoleModel,
				Parts: assistantParts(t),
			})
		case chatkit.RoleTool:
			response := map[string]any{"output": t.Text}
			if t.IsError {
				response = map[string]any{"error": t.Text}
			}
			result = append(result, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       t.ToolCallID,
						Name:     t.ToolName,
						Response: response,
					},
				}},
			})
		}
	}
	return result
}

func assistantParts(t chatkit.Turn) []*genai.Part {
	var parts []*genai.Part
	if t.Text != "" {
		parts = append(parts, &genai.Part{Text: t.Text})
	}
	for _, tc := range t.ToolCalls {
		// Arguments come from a previous round and are valid JSON objects.
		var args map[string]any
		_ = json.Unmarshal(tc.Arguments, &args)
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: args,
			},
		})
	}
	return parts
}

// ConvertTools converts chatkit Tools to genai Tools.
// Exported for testing.
func ConvertTools(tools []chatkit.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
