package chatkit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/chatkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want chatkit.StopReason
	}{
		{"nil", nil, chatkit.StopNone},
		{"cancel", fmt.Errorf("openai: stream: %w", context.Canceled), chatkit.StopCancel},
		{"api key", fmt.Errorf("gemini: %w", chatkit.ErrInvalidAPIKey), chatkit.StopAPIKey},
		{"recursion", fmt.Errorf("agent: %w", chatkit.ErrRecursion), chatkit.StopRecursion},
		{"deadline", context.DeadlineExceeded, chatkit.StopError},
		{"other", errors.New("boom"), chatkit.StopError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chatkit.ClassifyStop(tt.err))
		})
	}
}

func TestParseStopReason(t *testing.T) {
	t.Parallel()

	for _, r := range []chatkit.StopReason{
		chatkit.StopNone, chatkit.StopError, chatkit.StopCancel, chatkit.StopAPIKey, chatkit.StopRecursion,
	} {
		got, err := chatkit.ParseStopReason(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := chatkit.ParseStopReason("timeout")
	assert.ErrorIs(t, err, chatkit.ErrValidation)
}
