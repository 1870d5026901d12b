package bubbletea

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fwojciec/chatkit"
)

var _ chatkit.ChatController = (*Controller)(nil)

// Runner creates and generates messages. agent.Loop implements it.
type Runner interface {
	Start(req chatkit.RunRequest) (string, error)
	Run(ctx context.Context, id string, assistant chatkit.Assistant) error
}

// Controller implements chatkit.ChatController. Generation runs in
// background goroutines; the UI observes progress through the SessionStore.
type Controller struct {
	runner Runner

	mu     sync.Mutex
	reply  string
	editor *Editor
	runs   map[string]*run
	wg     sync.WaitGroup
}

type run struct {
	cancel context.CancelFunc
}

// NewController creates a Controller driving runner.
func NewController(runner Runner) *Controller {
	return &Controller{runner: runner, runs: make(map[string]*run)}
}

// RunModel implements chatkit.ChatController. Regenerating a message whose
// previous run has not finished is ignored.
func (c *Controller) RunModel(req chatkit.RunRequest) {
	if req.MessageID != "" && c.active(req.MessageID) {
		slog.Warn("message is still generating", "message", req.MessageID)
		return
	}
	id, err := c.runner.Start(req)
	if err != nil {
		slog.Error("start generation", "message", req.MessageID, "error", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel}

	c.mu.Lock()
	c.runs[id] = r
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.runner.Run(ctx, id, req.Assistant)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("generation failed", "message", id, "error", err)
		}
		cancel()
		c.mu.Lock()
		if c.runs[id] == r {
			delete(c.runs, id)
		}
		c.mu.Unlock()
	}()
}

func (c *Controller) active(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.runs[id]
	return ok
}

// Running reports whether any generation is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs) > 0
}

// Cancel stops every run in progress. The messages end with StopCancel.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.runs {
		r.cancel()
	}
}

// Wait blocks until all runs have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// SetReplyContext implements chatkit.ChatController.
func (c *Controller) SetReplyContext(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reply = text
}

// ReplyContext implements chatkit.ChatController.
func (c *Controller) ReplyContext() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reply
}

// SetEditor attaches the mounted editor.
func (c *Controller) SetEditor(e *Editor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor = e
}

// Editor implements chatkit.ChatController.
func (c *Controller) Editor() chatkit.Editor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editor == nil {
		return nil
	}
	return c.editor
}
