package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/fs"
)

// Compile-time interface check.
var _ chatkit.ToolExecutor = (*Executor)(nil)

// Executor dispatches tool calls to the built-in plugin implementations.
type Executor struct {
	prefs chatkit.PreferencesStore
	now   func() time.Time
}

// NewExecutor creates an Executor. prefs supplies the search root at call
// time so settings changes apply without a restart.
func NewExecutor(prefs chatkit.PreferencesStore) *Executor {
	return &Executor{prefs: prefs, now: time.Now}
}

// Execute dispatches a tool call by key. Unknown keys return an IsError
// result so the model can self-correct.
func (e *Executor) Execute(ctx context.Context, key chatkit.ToolKey, args json.RawMessage) (*chatkit.ToolResult, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	switch key {
	case chatkit.ToolCalculator:
		return ExecuteCalculator(ctx, args)
	case chatkit.ToolClock:
		return ExecuteClock(ctx, args, e.now())
	case chatkit.ToolSearch:
		var root string
		if e.prefs != nil {
			p, err := e.prefs.Get(ctx)
			if err != nil {
				return nil, fmt.Errorf("load preferences: %w", err)
			}
			root = p.SearchRoot
		}
		return fs.Search(ctx, root, args)
	default:
		return domainError(fmt.Sprintf("unknown tool: %s", key)), nil
	}
}
