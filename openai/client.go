package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/chatkit"
	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Interface compliance check.
var _ chatkit.Generator = (*Client)(nil)

// Client implements [chatkit.Generator] for the OpenAI API.
type Client struct {
	client oai.Client
	model  string
}

// Option configures a [Client].
type Option func(*clientConfig)

type clientConfig struct {
	model   string
	baseURL string
}

// WithModel sets the default model ID used when a request leaves it empty.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing api key: %w", chatkit.ErrInvalidAPIKey)
	}
	cfg := clientConfig{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	return &Client{
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Generate streams one assistant round from the Chat Completions API.
func (c *Client) Generate(ctx context.Context, req chatkit.GenerateRequest, onText func(string)) (chatkit.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return chatkit.GenerateResult{}, fmt.Errorf("openai: %w", err)
	}
	params := BuildParams(req, c.model)
	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	return Collect(ctx, stream, onText)
}

// BuildParams maps a request onto chat completion parameters.
// Exported for testing.
func BuildParams(req chatkit.GenerateRequest, fallbackModel string) oai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = fallbackModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	var msgs []oai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, oai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, ConvertTurns(req.Turns)...)
	return oai.ChatCompletionNewParams{
		Model:               oai.ChatModel(model),
		Messages:            msgs,
		Tools:               ConvertTools(req.Tools),
		MaxCompletionTokens: oai.Int(int64(maxTokens)),
	}
}

// ConvertTurns converts chatkit turns to chat completion messages.
// Exported for testing.
func ConvertTurns(turns []chatkit.Turn) []oai.ChatCompletionMessageParamUnion {
	result := make([]oai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case chatkit.RoleUser:
			result = append(result, oai.UserMessage(t.Text))
		case chatkit.RoleAssistant:
			result = append(result, assistantMessage(t))
		case chatkit.RoleTool:
			text := t.Text
			if t.IsError {
				text = "error: " + text
			}
			result = append(result, oai.ChatCompletionMessageParamUnion{
				OfTool: &oai.ChatCompletionToolMessageParam{
					ToolCallID: t.ToolCallID,
					Content: oai.ChatCompletionToolMessageParamContentUnion{
						OfString: oai.String(text),
					},
				},
			})
		}
	}
	return result
}

func assistantMessage(t chatkit.Turn) oai.ChatCompletionMessageParamUnion {
	if len(t.ToolCalls) == 0 {
		return oai.AssistantMessage(t.Text)
	}
	msg := &oai.ChatCompletionAssistantMessageParam{}
	if t.Text != "" {
		msg.Content.OfString = oai.String(t.Text)
	}
	for _, tc := range t.ToolCalls {
		args := string(tc.Arguments)
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, oai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &oai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: oai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: args,
				},
			},
		})
	}
	return oai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}

// ConvertTools converts chatkit Tools to chat completion function tools.
// Exported for testing.
func ConvertTools(tools []chatkit.Tool) []oai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]oai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		var params oai.FunctionParameters
		_ = json.Unmarshal(t.Parameters, &params)
		result[i] = oai.ChatCompletionFunctionTool(oai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: oai.String(t.Description),
			Parameters:  params,
		})
	}
	return result
}
