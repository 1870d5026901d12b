package bubbletea

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// scopeSeq hands out generations so results from any earlier scope are
// recognizable after a remount.
var scopeSeq atomic.Int64

// taskScope binds asynchronous commands to a component's lifetime. Results
// are wrapped in scopedMsg and accepted only while the scope is open.
type taskScope struct {
	gen    int64
	ctx    context.Context
	cancel context.CancelFunc
}

func newTaskScope() *taskScope {
	ctx, cancel := context.WithCancel(context.Background())
	return &taskScope{gen: scopeSeq.Add(1), ctx: ctx, cancel: cancel}
}

// run wraps fn as a command whose context is cancelled when the scope closes.
func (s *taskScope) run(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	gen, ctx := s.gen, s.ctx
	return func() tea.Msg {
		return scopedMsg{gen: gen, msg: fn(ctx)}
	}
}

func (s *taskScope) accepts(gen int64) bool {
	return s.gen == gen && s.ctx.Err() == nil
}

func (s *taskScope) close() { s.cancel() }

// scopedMsg carries the result of a task started in a taskScope.
type scopedMsg struct {
	gen int64
	msg tea.Msg
}

type pluginsLoadedMsg struct {
	plugins []chatkit.ToolKey
	err     error
}

type pluginToggledMsg struct {
	key chatkit.ToolKey
	on  bool
	err error
}

type pluginRejectedMsg struct {
	key chatkit.ToolKey
	err error
}

// PluginDeps are the collaborators of a PluginToggle.
type PluginDeps struct {
	Models chatkit.ModelRegistry
	Tools  chatkit.ToolRegistry
	Prefs  chatkit.PreferencesStore
}

// PluginToggle is the popover listing every registered tool, each with an
// on/off switch backed by Preferences.DefaultPlugins. It is shown only for
// models that declare plugins; which enabled tools a model may call is
// decided at generation time.
type PluginToggle struct {
	visible bool
	deps    PluginDeps
	styles  Styles
	scope   *taskScope

	open    bool
	enabled []chatkit.ToolKey
	pending []chatkit.ToolKey
	filter  string
	cursor  int
}

// NewPluginToggle creates the toggle for model key. It is hidden when the
// model is unknown or declares no plugins.
func NewPluginToggle(key chatkit.ModelKey, deps PluginDeps, styles Styles) PluginToggle {
	m, ok := deps.Models.ModelByKey(key)
	return PluginToggle{
		visible: ok && len(m.Plugins) > 0,
		deps:    deps,
		styles:  styles,
		scope:   newTaskScope(),
	}
}

func (p PluginToggle) Visible() bool { return p.visible }
func (p PluginToggle) IsOpen() bool  { return p.open }

// Enabled returns the locally cached plugin keys.
func (p PluginToggle) Enabled() []chatkit.ToolKey { return slices.Clone(p.enabled) }

// Count is the number shown on the badge.
func (p PluginToggle) Count() int { return len(p.enabled) }

// IsPending reports whether a toggle of key is still being validated or saved.
func (p PluginToggle) IsPending(key chatkit.ToolKey) bool {
	return slices.Contains(p.pending, key)
}

// IsEnabled reports the local switch state of key.
func (p PluginToggle) IsEnabled(key chatkit.ToolKey) bool {
	return slices.Contains(p.enabled, key)
}

// Load reads preferences and seeds the local state.
func (p PluginToggle) Load() tea.Cmd {
	if !p.visible {
		return nil
	}
	prefs := p.deps.Prefs
	return p.scope.run(func(ctx context.Context) tea.Msg {
		got, err := prefs.Get(ctx)
		return pluginsLoadedMsg{plugins: got.DefaultPlugins, err: err}
	})
}

// Open shows the popover and reloads preferences.
func (p PluginToggle) Open() (PluginToggle, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	p.open = true
	p.filter = ""
	p.cursor = 0
	return p, p.Load()
}

// Close hides the popover.
func (p PluginToggle) Close() PluginToggle {
	p.open = false
	return p
}

// Unmount cancels in-flight work. Results arriving afterwards are dropped.
func (p PluginToggle) Unmount() PluginToggle {
	p.scope.close()
	p.open = false
	return p
}

// SetPlugins replaces the local state, e.g. after an external edit.
func (p PluginToggle) SetPlugins(plugins []chatkit.ToolKey) PluginToggle {
	p.enabled = slices.Clone(plugins)
	return p
}

// Toggle flips key. Enabling runs the descriptor's validator first; a
// rejection leaves all state unchanged and calls OnValidationFailed.
// Disabling applies locally at once and is persisted unconditionally.
// Presses on a key whose previous toggle has not resolved are ignored.
func (p PluginToggle) Toggle(key chatkit.ToolKey) (PluginToggle, tea.Cmd) {
	d, ok := p.deps.Tools.ToolByKey(key)
	if !ok || p.IsPending(key) {
		return p, nil
	}
	p.pending = append(slices.Clone(p.pending), key)
	prefs := p.deps.Prefs
	if p.IsEnabled(key) {
		p.enabled = chatkit.DisablePlugin(p.enabled, key)
		return p, p.scope.run(func(ctx context.Context) tea.Msg {
			return pluginToggledMsg{key: key, on: false, err: setPlugin(ctx, prefs, key, false)}
		})
	}
	validate := d.Validate
	return p, p.scope.run(func(ctx context.Context) tea.Msg {
		if validate != nil {
			ok, err := validate(ctx)
			if err != nil || !ok {
				return pluginRejectedMsg{key: key, err: err}
			}
		}
		return pluginToggledMsg{key: key, on: true, err: setPlugin(ctx, prefs, key, true)}
	})
}

func setPlugin(ctx context.Context, store chatkit.PreferencesStore, key chatkit.ToolKey, on bool) error {
	prefs, err := store.Get(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	plugins := chatkit.DisablePlugin(prefs.DefaultPlugins, key)
	if on {
		plugins = chatkit.EnablePlugin(prefs.DefaultPlugins, key)
	}
	if err := store.Set(ctx, chatkit.PluginsPatch(plugins)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Update handles task results and, while open, navigation keys.
func (p PluginToggle) Update(msg tea.Msg) (PluginToggle, tea.Cmd) {
	switch msg := msg.(type) {
	case scopedMsg:
		if !p.scope.accepts(msg.gen) {
			return p, nil
		}
		return p.handleResult(msg.msg), nil
	case tea.KeyMsg:
		if p.open {
			return p.handleKey(msg)
		}
	}
	return p, nil
}

func (p PluginToggle) handleResult(msg tea.Msg) PluginToggle {
	switch msg := msg.(type) {
	case pluginsLoadedMsg:
		if msg.err != nil {
			slog.Error("load plugin preferences", "error", msg.err)
			return p
		}
		p.enabled = slices.Clone(msg.plugins)
	case pluginToggledMsg:
		p = p.settle(msg.key)
		if msg.on {
			p.enabled = chatkit.EnablePlugin(p.enabled, msg.key)
		}
		if msg.err != nil {
			slog.Error("persist plugin toggle", "plugin", msg.key, "on", msg.on, "error", msg.err)
		}
	case pluginRejectedMsg:
		p = p.settle(msg.key)
		slog.Info("plugin validation failed", "plugin", msg.key, "error", msg.err)
		if d, ok := p.deps.Tools.ToolByKey(msg.key); ok && d.OnValidationFailed != nil {
			d.OnValidationFailed()
		}
	}
	return p
}

func (p PluginToggle) settle(key chatkit.ToolKey) PluginToggle {
	p.pending = slices.DeleteFunc(slices.Clone(p.pending), func(k chatkit.ToolKey) bool { return k == key })
	return p
}

func (p PluginToggle) handleKey(msg tea.KeyMsg) (PluginToggle, tea.Cmd) {
	rows := p.rows()
	switch msg.Type {
	case tea.KeyEsc:
		return p.Close(), nil
	case tea.KeyUp:
		if len(rows) > 0 {
			p.cursor = (p.cursor - 1 + len(rows)) % len(rows)
		}
	case tea.KeyDown:
		if len(rows) > 0 {
			p.cursor = (p.cursor + 1) % len(rows)
		}
	case tea.KeySpace, tea.KeyEnter:
		if p.cursor < len(rows) {
			return p.Toggle(rows[p.cursor].Key)
		}
	case tea.KeyBackspace:
		if f := []rune(p.filter); len(f) > 0 {
			p.filter = string(f[:len(f)-1])
			p.cursor = 0
		}
	case tea.KeyRunes:
		p.filter += string(msg.Runes)
		p.cursor = 0
	}
	return p, nil
}

// rows lists the registered tools matching the filter, in registry order
// when unfiltered and by match quality otherwise.
func (p PluginToggle) rows() []chatkit.ToolDescriptor {
	all := p.deps.Tools.Tools()
	if p.filter == "" {
		return all
	}
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	matches := fuzzy.Find(p.filter, names)
	out := make([]chatkit.ToolDescriptor, len(matches))
	for i, m := range matches {
		out[i] = all[m.Index]
	}
	return out
}

// Badge renders the plugin count shown in the status line.
func (p PluginToggle) Badge() string {
	if !p.visible {
		return ""
	}
	return p.styles.Badge.Render(fmt.Sprintf("plugins %d", p.Count()))
}

// View renders the open popover.
func (p PluginToggle) View(width int) string {
	if !p.open {
		return ""
	}
	inner := max(width-4, 20)
	lines := []string{p.styles.Accent.Render("Plugins") + "  " + p.styles.Muted.Render(p.filter)}
	rows := p.rows()
	if len(rows) == 0 {
		lines = append(lines, p.styles.Muted.Render("no matching plugins"))
	}
	for i, d := range rows {
		marker := "  "
		if i == p.cursor {
			marker = p.styles.Accent.Render("› ")
		}
		sw := "[ ]"
		switch {
		case p.IsPending(d.Key):
			sw = p.styles.Muted.Render("[~]")
		case p.IsEnabled(d.Key):
			sw = p.styles.Success.Render("[x]")
		}
		head := fmt.Sprintf("%s %s ", d.Icon, d.Name)
		// marker, switch and overlay padding
		descWidth := inner - runewidth.StringWidth(head) - 8
		desc := ""
		if descWidth > 3 {
			desc = runewidth.Truncate(d.Description, descWidth, "...")
		}
		lines = append(lines, marker+sw+" "+head+p.styles.Muted.Render(desc))
	}
	lines = append(lines, p.styles.Muted.Render("space toggle · type to filter · esc close"))
	return p.styles.Overlay.Width(inner).Render(strings.Join(lines, "\n"))
}
