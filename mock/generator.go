package mock

import (
	"context"

	"github.com/fwojciec/chatkit"
)

var _ chatkit.Generator = (*Generator)(nil)

// Generator is a test double for chatkit.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, req chatkit.GenerateRequest, onText func(string)) (chatkit.GenerateResult, error)
}

func (g *Generator) Generate(ctx context.Context, req chatkit.GenerateRequest, onText func(string)) (chatkit.GenerateResult, error) {
	return g.GenerateFn(ctx, req, onText)
}
