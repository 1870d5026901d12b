package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/openai"
	oai "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	chunks []oai.ChatCompletionChunk
	pos    int
	err    error
	closed bool
}

func (s *fakeStream) Next() bool {
	if s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeStream) Current() oai.ChatCompletionChunk { return s.chunks[s.pos-1] }
func (s *fakeStream) Err() error                       { return s.err }
func (s *fakeStream) Close() error                     { s.closed = true; return nil }

func newStream(t *testing.T, raw ...string) *fakeStream {
	t.Helper()
	s := &fakeStream{}
	for _, r := range raw {
		var c oai.ChatCompletionChunk
		require.NoError(t, json.Unmarshal([]byte(r), &c))
		s.chunks = append(s.chunks, c)
	}
	return s
}

func TestCollect_Text(t *testing.T) {
	t.Parallel()
	s := newStream(t,
		`{"id":"x","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	)
	var deltas []string
	res, err := openai.Collect(context.Background(), s, func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "Hello", res.Text)
	assert.Empty(t, res.ToolCalls)
	assert.True(t, s.closed)
}

func TestCollect_ToolCalls(t *testing.T) {
	t.Parallel()
	s := newStream(t,
		`{"id":"x","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"calculator","arguments":""}}]}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"expression\":"}}]}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"1+1\"}"}}]}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{"tool_calls":[{"index":1,"id":"call_b","type":"function","function":{"name":"clock","arguments":""}}]}}]}`,
		`{"id":"x","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)
	res, err := openai.Collect(context.Background(), s, nil)
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "call_a", res.ToolCalls[0].ID)
	assert.Equal(t, "calculator", res.ToolCalls[0].Name)
	assert.JSONEq(t, `{"expression":"1+1"}`, string(res.ToolCalls[0].Arguments))
	assert.Equal(t, "clock", res.ToolCalls[1].Name)
	assert.JSONEq(t, `{}`, string(res.ToolCalls[1].Arguments))
}

func TestCollect_InvalidToolArguments(t *testing.T) {
	t.Parallel()
	s := newStream(t,
		`{"id":"x","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"c","type":"function","function":{"name":"clock","arguments":"{broken"}}]}}]}`,
	)
	_, err := openai.Collect(context.Background(), s, nil)
	require.Error(t, err)
}

func TestCollect_Empty(t *testing.T) {
	t.Parallel()
	res, err := openai.Collect(context.Background(), newStream(t), nil)
	require.NoError(t, err)
	assert.Equal(t, chatkit.GenerateResult{}, res)
}

func TestCollect_StreamError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := newStream(t)
	s.err = boom
	_, err := openai.Collect(context.Background(), s, nil)
	require.ErrorIs(t, err, boom)
}

func TestCollect_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStream(t, `{"id":"x","choices":[{"index":0,"delta":{"content":"a"}}]}`)
	_, err := openai.Collect(ctx, s, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func apiError(status int) *oai.Error {
	return &oai.Error{
		Message:    "bad",
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		err     error
		invalid bool
	}{
		{"unauthorized", apiError(http.StatusUnauthorized), true},
		{"forbidden", apiError(http.StatusForbidden), true},
		{"rate limited", apiError(http.StatusTooManyRequests), false},
		{"plain", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.invalid, errors.Is(openai.Classify(tt.err), chatkit.ErrInvalidAPIKey))
		})
	}
}
