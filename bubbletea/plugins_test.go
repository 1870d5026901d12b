package bubbletea_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
	bt "github.com/fwojciec/chatkit/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedToggle(t *testing.T, model chatkit.ModelKey, prefs *memPrefs, reg chatkit.ToolRegistry) bt.PluginToggle {
	t.Helper()
	p := bt.NewPluginToggle(model, bt.PluginDeps{Models: models(), Tools: reg, Prefs: prefs}, styles)
	p, _ = p.Update(runCmd(t, p.Load()))
	return p
}

func TestPluginToggle_Visibility(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{}
	deps := bt.PluginDeps{Models: models(), Tools: tools(), Prefs: prefs}

	assert.True(t, bt.NewPluginToggle("gpt", deps, styles).Visible())
	assert.False(t, bt.NewPluginToggle("gemini", deps, styles).Visible(), "no plugins")
	assert.False(t, bt.NewPluginToggle("claude", deps, styles).Visible(), "unknown model")

	hidden := bt.NewPluginToggle("gemini", deps, styles)
	assert.Nil(t, hidden.Load())
	assert.Empty(t, hidden.Badge())
	hidden, _ = hidden.Open()
	assert.False(t, hidden.IsOpen())
}

func TestPluginToggle_EnableRoundTrip(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{prefs: chatkit.Preferences{DefaultPlugins: []chatkit.ToolKey{chatkit.ToolSearch}}}
	p := loadedToggle(t, "gpt", prefs, tools())
	assert.Equal(t, 1, p.Count())
	assert.Contains(t, p.Badge(), "plugins 1")

	p, cmd := p.Toggle(chatkit.ToolCalculator)
	assert.False(t, p.IsEnabled(chatkit.ToolCalculator), "enable waits for validation")
	p, _ = p.Update(runCmd(t, cmd))

	assert.True(t, p.IsEnabled(chatkit.ToolCalculator))
	assert.Equal(t, 2, p.Count())
	assert.Contains(t, p.Badge(), "plugins 2")
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator}, prefs.plugins())
}

func TestPluginToggle_Disable(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{prefs: chatkit.Preferences{DefaultPlugins: []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator}}}
	p := loadedToggle(t, "gpt", prefs, tools())

	p, cmd := p.Toggle(chatkit.ToolSearch)
	assert.False(t, p.IsEnabled(chatkit.ToolSearch), "disable applies at once")
	assert.Equal(t, 1, p.Count())

	p, _ = p.Update(runCmd(t, cmd))
	assert.False(t, p.IsEnabled(chatkit.ToolSearch))
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolCalculator}, prefs.plugins())
}

func TestPluginToggle_ValidationFailure(t *testing.T) {
	t.Parallel()

	var failed atomic.Int32
	reg := tools(chatkit.ToolDescriptor{
		Key:  chatkit.ToolSearch,
		Name: "File Search",
		Validate: func(context.Context) (bool, error) {
			return false, nil
		},
		OnValidationFailed: func() { failed.Add(1) },
	})
	prefs := &memPrefs{}
	p := loadedToggle(t, "gpt", prefs, reg)

	p, cmd := p.Toggle(chatkit.ToolSearch)
	p, _ = p.Update(runCmd(t, cmd))

	assert.False(t, p.IsEnabled(chatkit.ToolSearch))
	assert.Equal(t, int32(1), failed.Load())
	assert.Empty(t, prefs.patches)
}

func TestPluginToggle_ValidatorError(t *testing.T) {
	t.Parallel()

	var failed atomic.Int32
	reg := tools(chatkit.ToolDescriptor{
		Key: chatkit.ToolSearch,
		Validate: func(context.Context) (bool, error) {
			return true, errors.New("stat failed")
		},
		OnValidationFailed: func() { failed.Add(1) },
	})
	p := loadedToggle(t, "gpt", &memPrefs{}, reg)

	p, cmd := p.Toggle(chatkit.ToolSearch)
	p, _ = p.Update(runCmd(t, cmd))

	assert.False(t, p.IsEnabled(chatkit.ToolSearch))
	assert.Equal(t, int32(1), failed.Load())
}

func TestPluginToggle_PersistFailureKeepsLocalState(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{setErr: errors.New("disk full")}
	p := loadedToggle(t, "gpt", prefs, tools())

	p, cmd := p.Toggle(chatkit.ToolCalculator)
	p, _ = p.Update(runCmd(t, cmd))

	assert.True(t, p.IsEnabled(chatkit.ToolCalculator))
	assert.Len(t, prefs.patches, 1)
}

func TestPluginToggle_UnregisteredTool(t *testing.T) {
	t.Parallel()

	reg := tools(chatkit.ToolDescriptor{Key: chatkit.ToolSearch, Name: "File Search"})
	p := loadedToggle(t, "gpt", &memPrefs{}, reg)
	p, cmd := p.Toggle(chatkit.ToolClock)
	assert.Nil(t, cmd)
	assert.False(t, p.IsEnabled(chatkit.ToolClock))
}

func TestPluginToggle_ListsToolsOutsideModel(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{prefs: chatkit.Preferences{DefaultPlugins: []chatkit.ToolKey{chatkit.ToolClock, chatkit.ToolSearch}}}
	p := loadedToggle(t, "gpt", prefs, tools())
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolClock, chatkit.ToolSearch}, p.Enabled())
	assert.Equal(t, 2, p.Count())
	assert.Contains(t, p.Badge(), "plugins 2")

	p, _ = p.Open()
	assert.Contains(t, p.View(60), "Clock")

	// gpt does not declare the clock, yet it can still be switched off.
	p, cmd := p.Toggle(chatkit.ToolClock)
	require.NotNil(t, cmd)
	p, _ = p.Update(runCmd(t, cmd))
	assert.False(t, p.IsEnabled(chatkit.ToolClock))
	assert.Equal(t, 1, p.Count())
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolSearch}, prefs.plugins())
}

func TestPluginToggle_RoundTripRestoresPreferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial []chatkit.ToolKey
		key     chatkit.ToolKey
	}{
		{name: "enable then disable", initial: []chatkit.ToolKey{chatkit.ToolSearch}, key: chatkit.ToolCalculator},
		{name: "enable then disable from empty", initial: nil, key: chatkit.ToolSearch},
		{name: "disable then enable", initial: []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator}, key: chatkit.ToolCalculator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prefs := &memPrefs{prefs: chatkit.Preferences{DefaultPlugins: tt.initial}}
			p := loadedToggle(t, "gpt", prefs, tools())

			for range 2 {
				var cmd tea.Cmd
				p, cmd = p.Toggle(tt.key)
				require.NotNil(t, cmd)
				p, _ = p.Update(runCmd(t, cmd))
			}

			assert.ElementsMatch(t, tt.initial, prefs.plugins())
			assert.ElementsMatch(t, tt.initial, p.Enabled())
		})
	}
}

func TestPluginToggle_IgnoresPressWhilePending(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{}
	p := loadedToggle(t, "gpt", prefs, tools())

	p, first := p.Toggle(chatkit.ToolCalculator)
	require.NotNil(t, first)
	assert.True(t, p.IsPending(chatkit.ToolCalculator))

	p, second := p.Toggle(chatkit.ToolCalculator)
	assert.Nil(t, second)

	p, _ = p.Update(runCmd(t, first))
	assert.False(t, p.IsPending(chatkit.ToolCalculator))
	assert.True(t, p.IsEnabled(chatkit.ToolCalculator))
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolCalculator}, prefs.plugins())

	p, third := p.Toggle(chatkit.ToolCalculator)
	require.NotNil(t, third)
	p, _ = p.Update(runCmd(t, third))
	assert.False(t, p.IsEnabled(chatkit.ToolCalculator))
	assert.Empty(t, prefs.plugins())
}

func TestPluginToggle_RejectionClearsPending(t *testing.T) {
	t.Parallel()

	reg := tools(chatkit.ToolDescriptor{
		Key:      chatkit.ToolSearch,
		Validate: func(context.Context) (bool, error) { return false, nil },
	})
	p := loadedToggle(t, "gpt", &memPrefs{}, reg)

	p, cmd := p.Toggle(chatkit.ToolSearch)
	p, _ = p.Update(runCmd(t, cmd))
	assert.False(t, p.IsPending(chatkit.ToolSearch))

	_, cmd = p.Toggle(chatkit.ToolSearch)
	assert.NotNil(t, cmd)
}

func TestPluginToggle_StaleResultsAfterUnmount(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{prefs: chatkit.Preferences{DefaultPlugins: []chatkit.ToolKey{chatkit.ToolSearch}}}
	p := bt.NewPluginToggle("gpt", bt.PluginDeps{Models: models(), Tools: tools(), Prefs: prefs}, styles)

	cmd := p.Load()
	p = p.Unmount()
	p, _ = p.Update(runCmd(t, cmd))
	assert.Zero(t, p.Count())

	// A remounted toggle ignores results from the previous mount.
	fresh := bt.NewPluginToggle("gpt", bt.PluginDeps{Models: models(), Tools: tools(), Prefs: prefs}, styles)
	fresh, _ = fresh.Update(runCmd(t, cmd))
	assert.Zero(t, fresh.Count())
}

func TestPluginToggle_Keys(t *testing.T) {
	t.Parallel()

	prefs := &memPrefs{}
	p := loadedToggle(t, "gpt", prefs, tools())

	p, cmd := p.Open()
	require.True(t, p.IsOpen())
	p, _ = p.Update(runCmd(t, cmd))

	view := p.View(60)
	assert.Contains(t, view, "File Search")
	assert.Contains(t, view, "Calculator")
	assert.Contains(t, view, "Clock")

	for _, r := range "calc" {
		p, _ = p.Update(key(string(r)))
	}
	view = p.View(60)
	assert.Contains(t, view, "Calculator")
	assert.NotContains(t, view, "File Search")

	p, cmd = p.Update(key("space"))
	p, _ = p.Update(runCmd(t, cmd))
	assert.True(t, p.IsEnabled(chatkit.ToolCalculator))

	p, _ = p.Update(key("esc"))
	assert.False(t, p.IsOpen())
}

func TestPluginToggle_SetPlugins(t *testing.T) {
	t.Parallel()

	p := loadedToggle(t, "gpt", &memPrefs{}, tools())
	p = p.SetPlugins([]chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator})
	assert.Equal(t, 2, p.Count())
}
