package bubbletea_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fwojciec/chatkit"
	bt "github.com/fwojciec/chatkit/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner holds every run open until its context is cancelled.
type blockingRunner struct {
	mu       sync.Mutex
	starts   []chatkit.RunRequest
	started  chan string
	startErr error
	runErr   error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan string, 8)}
}

func (r *blockingRunner) Start(req chatkit.RunRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return "", r.startErr
	}
	r.starts = append(r.starts, req)
	if req.MessageID != "" {
		return req.MessageID, nil
	}
	return "new", nil
}

func (r *blockingRunner) Run(ctx context.Context, id string, _ chatkit.Assistant) error {
	r.started <- id
	<-ctx.Done()
	if r.runErr != nil {
		return r.runErr
	}
	return ctx.Err()
}

func (r *blockingRunner) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

func TestController_RunAndCancel(t *testing.T) {
	t.Parallel()

	runner := newBlockingRunner()
	c := bt.NewController(runner)
	assert.False(t, c.Running())

	c.RunModel(chatkit.RunRequest{Input: "hi", Assistant: gptAssistant})
	assert.Equal(t, "new", <-runner.started)
	assert.True(t, c.Running())

	c.Cancel()
	c.Wait()
	assert.False(t, c.Running())
}

func TestController_RefusesRegenerateWhileRunning(t *testing.T) {
	t.Parallel()

	runner := newBlockingRunner()
	c := bt.NewController(runner)

	c.RunModel(chatkit.RunRequest{Input: "hi", MessageID: "m1", Assistant: gptAssistant})
	<-runner.started
	c.RunModel(chatkit.RunRequest{Input: "hi", MessageID: "m1", Assistant: geminiAssistant})
	assert.Equal(t, 1, runner.startCount())

	c.Cancel()
	c.Wait()

	c.RunModel(chatkit.RunRequest{Input: "hi", MessageID: "m1", Assistant: geminiAssistant})
	<-runner.started
	assert.Equal(t, 2, runner.startCount())
	c.Cancel()
	c.Wait()
}

func TestController_StartError(t *testing.T) {
	t.Parallel()

	runner := newBlockingRunner()
	runner.startErr = errors.New("store closed")
	c := bt.NewController(runner)

	c.RunModel(chatkit.RunRequest{Input: "hi", Assistant: gptAssistant})
	c.Wait()
	assert.False(t, c.Running())
}

func TestController_ReplyContextAndEditor(t *testing.T) {
	t.Parallel()

	c := bt.NewController(newBlockingRunner())
	assert.Nil(t, c.Editor())

	c.SetReplyContext("quoted")
	assert.Equal(t, "quoted", c.ReplyContext())

	editor := bt.NewEditor()
	c.SetEditor(editor)
	require.NotNil(t, c.Editor())

	editor.SetValue("draft")
	c.Editor().ClearContent()
	assert.Empty(t, editor.Value())

	c.SetEditor(nil)
	assert.Nil(t, c.Editor())
}
