// Package agent runs generation for a chat message: it streams the model's
// reply into the session store and executes the tools the model requests.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/fwojciec/chatkit"
	"github.com/google/uuid"
)

// DefaultMaxToolRounds is the number of generator calls allowed per run
// before a run that keeps requesting tools is stopped as recursive.
const DefaultMaxToolRounds = 5

// Config holds the collaborators of a Loop.
type Config struct {
	Sessions   chatkit.SessionStore
	Models     chatkit.ModelRegistry
	Tools      chatkit.ToolRegistry
	Prefs      chatkit.PreferencesStore
	Executor   chatkit.ToolExecutor
	Generators chatkit.GeneratorFactory
	// MaxToolRounds defaults to DefaultMaxToolRounds when zero.
	MaxToolRounds int
}

// Loop orchestrates generation between a Generator and a ToolExecutor,
// recording progress on the message in the SessionStore.
type Loop struct {
	sessions   chatkit.SessionStore
	models     chatkit.ModelRegistry
	tools      chatkit.ToolRegistry
	prefs      chatkit.PreferencesStore
	executor   chatkit.ToolExecutor
	generators chatkit.GeneratorFactory
	maxRounds  int
	newID      func() string
}

// New creates a Loop from cfg.
func New(cfg Config) *Loop {
	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Loop{
		sessions:   cfg.Sessions,
		models:     cfg.Models,
		tools:      cfg.Tools,
		prefs:      cfg.Prefs,
		executor:   cfg.Executor,
		generators: cfg.Generators,
		maxRounds:  maxRounds,
		newID:      uuid.NewString,
	}
}

// Start creates or resets the message for req and returns its ID. A
// MessageID in req regenerates that message in place.
func (l *Loop) Start(req chatkit.RunRequest) (string, error) {
	if req.MessageID != "" {
		err := l.sessions.UpdateMessage(req.MessageID, func(m *chatkit.Message) {
			*m = m.Reset(req.Assistant)
		})
		if err != nil {
			return "", fmt.Errorf("reset message: %w", err)
		}
		return req.MessageID, nil
	}
	id := l.newID()
	msg := chatkit.Message{
		ID:        id,
		SessionID: req.SessionID,
		RawHuman:  req.Input,
		Loading:   true,
		Input:     chatkit.InputProps{Assistant: req.Assistant},
	}
	if err := l.sessions.AppendMessage(msg); err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

// Run generates the reply for message id and always leaves it stopped,
// with the stop reason derived from the returned error.
func (l *Loop) Run(ctx context.Context, id string, assistant chatkit.Assistant) error {
	err := l.generate(ctx, id, assistant)
	reason := chatkit.ClassifyStop(err)
	if reason != chatkit.StopNone {
		slog.Info("generation stopped", "message", id, "reason", reason, "error", err)
	}
	finishErr := l.sessions.UpdateMessage(id, func(m *chatkit.Message) {
		m.Loading = false
		m.ToolRunning = false
		m.Stop = true
		m.StopReason = reason
	})
	if finishErr != nil {
		slog.Error("finish message", "message", id, "error", finishErr)
	}
	return err
}

func (l *Loop) generate(ctx context.Context, id string, assistant chatkit.Assistant) error {
	model, ok := l.models.ModelByKey(assistant.BaseModel)
	if !ok {
		return fmt.Errorf("model %q: %w", assistant.BaseModel, chatkit.ErrNotFound)
	}
	prefs, err := l.prefs.Get(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	gen, err := l.generators(model, prefs)
	if err != nil {
		return err
	}

	turns, err := l.history(id)
	if err != nil {
		return err
	}
	enabled := chatkit.EnabledTools(prefs, model)
	var tools []chatkit.Tool
	for _, key := range enabled {
		if d, ok := l.tools.ToolByKey(key); ok {
			tools = append(tools, d.Schema())
		}
	}

	var written strings.Builder
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := chatkit.GenerateRequest{
			Model:        model.ModelID,
			SystemPrompt: assistant.SystemPrompt,
			Turns:        turns,
			Tools:        tools,
		}
		if err := req.Validate(); err != nil {
			return err
		}

		var updateErr error
		separate := written.Len() > 0
		res, err := gen.Generate(ctx, req, func(delta string) {
			if delta == "" || updateErr != nil {
				return
			}
			if separate {
				delta = "\n\n" + delta
				separate = false
			}
			written.WriteString(delta)
			updateErr = l.sessions.UpdateMessage(id, func(m *chatkit.Message) {
				m.RawAI += delta
			})
		})
		if updateErr != nil {
			return fmt.Errorf("record output: %w", updateErr)
		}
		if err != nil {
			return err
		}
		if len(res.ToolCalls) == 0 {
			return nil
		}
		if round+1 >= l.maxRounds {
			return fmt.Errorf("%d tool rounds: %w", l.maxRounds, chatkit.ErrRecursion)
		}

		turns = append(turns, chatkit.Turn{Role: chatkit.RoleAssistant, Text: res.Text, ToolCalls: res.ToolCalls})
		for _, call := range res.ToolCalls {
			result, err := l.runTool(ctx, id, call, enabled)
			if err != nil {
				return err
			}
			turns = append(turns, chatkit.Turn{
				Role:       chatkit.RoleTool,
				Text:       result.Content,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				IsError:    result.IsError,
			})
		}
	}
}

// history converts the messages before id, plus id's human input, into
// generator turns. Exchanges without assistant output, or that ended in an
// error or a rejected API key, are skipped.
func (l *Loop) history(id string) ([]chatkit.Turn, error) {
	session := l.sessions.CurrentSession()
	idx := session.Index(id)
	if idx < 0 {
		return nil, fmt.Errorf("message %s: %w", id, chatkit.ErrNotFound)
	}
	var turns []chatkit.Turn
	for _, m := range session.Messages[:idx] {
		if m.RawAI == "" || failed(m) {
			continue
		}
		turns = append(turns,
			chatkit.Turn{Role: chatkit.RoleUser, Text: m.RawHuman},
			chatkit.Turn{Role: chatkit.RoleAssistant, Text: m.RawAI},
		)
	}
	return append(turns, chatkit.Turn{Role: chatkit.RoleUser, Text: session.Messages[idx].RawHuman}), nil
}

func failed(m chatkit.Message) bool {
	return m.Stop && (m.StopReason == chatkit.StopError || m.StopReason == chatkit.StopAPIKey)
}

// runTool executes one call, marking the message as running a tool for its
// duration. Tool failures become IsError results; only cancellation and
// store failures abort the run.
func (l *Loop) runTool(ctx context.Context, id string, call chatkit.ToolCall, enabled []chatkit.ToolKey) (*chatkit.ToolResult, error) {
	if err := l.sessions.UpdateMessage(id, func(m *chatkit.Message) {
		m.ToolName = call.Name
		m.ToolRunning = true
	}); err != nil {
		return nil, fmt.Errorf("record tool start: %w", err)
	}

	result := l.execute(ctx, call, enabled)

	if err := l.sessions.UpdateMessage(id, func(m *chatkit.Message) {
		m.ToolRunning = false
	}); err != nil {
		return nil, fmt.Errorf("record tool end: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Loop) execute(ctx context.Context, call chatkit.ToolCall, enabled []chatkit.ToolKey) *chatkit.ToolResult {
	key, err := chatkit.ParseToolKey(call.Name)
	if err != nil {
		return &chatkit.ToolResult{Content: err.Error(), IsError: true}
	}
	if !slices.Contains(enabled, key) {
		return &chatkit.ToolResult{Content: fmt.Sprintf("tool %s is not enabled", key), IsError: true}
	}
	result, err := l.executor.Execute(ctx, key, call.Arguments)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("tool failed", "tool", key, "error", err)
		}
		return &chatkit.ToolResult{Content: err.Error(), IsError: true}
	}
	return result
}
