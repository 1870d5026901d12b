package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/chatkit"
)

// Interface compliance checks.
var (
	_ chatkit.ToolExecutor = (*ToolExecutor)(nil)
	_ chatkit.ToolRegistry = (*ToolRegistry)(nil)
)

// ToolExecutor is a test double for chatkit.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, key chatkit.ToolKey, args json.RawMessage) (*chatkit.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, key chatkit.ToolKey, args json.RawMessage) (*chatkit.ToolResult, error) {
	return e.ExecuteFn(ctx, key, args)
}

// ToolRegistry is a test double for chatkit.ToolRegistry.
type ToolRegistry struct {
	ToolsFn     func() []chatkit.ToolDescriptor
	ToolByKeyFn func(key chatkit.ToolKey) (chatkit.ToolDescriptor, bool)
}

func (r *ToolRegistry) Tools() []chatkit.ToolDescriptor {
	return r.ToolsFn()
}

func (r *ToolRegistry) ToolByKey(key chatkit.ToolKey) (chatkit.ToolDescriptor, bool) {
	return r.ToolByKeyFn(key)
}
