// Package bubbletea provides the Bubble Tea TUI for chatkit: the chat screen,
// assistant message bubbles, the plugin toggle popover and the settings
// overlay.
package bubbletea

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits. Preference changes reported by watch are forwarded to the
// model as PreferencesChangedMsg.
func Run(ctx context.Context, m Model, watch func(ctx context.Context, onChange func(chatkit.Preferences)) error) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if watch != nil {
		go watchPreferences(ctx, slog.Default(), watch, p.Send)
	}
	_, err := p.Run()
	return err
}

// watchPreferences forwards preference changes to send until watch returns.
// A watch failure is logged; the UI keeps running without live reloads.
func watchPreferences(ctx context.Context, logger *slog.Logger, watch func(context.Context, func(chatkit.Preferences)) error, send func(tea.Msg)) {
	err := watch(ctx, func(prefs chatkit.Preferences) {
		send(PreferencesChangedMsg{Prefs: prefs})
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("watch preferences", "error", err)
	}
}

// SessionChangedMsg signals that the SessionStore was mutated.
type SessionChangedMsg struct{}

// PreferencesChangedMsg carries preferences modified outside the UI.
type PreferencesChangedMsg struct {
	Prefs chatkit.Preferences
}

// OpenSettingsMsg asks the root model to show the settings overlay.
type OpenSettingsMsg struct{}

// sessionFeed turns SessionStore notifications into SessionChangedMsg.
// Notifications are coalesced: the model re-reads the whole session, so one
// pending signal is enough.
type sessionFeed struct {
	ch          chan struct{}
	unsubscribe func()
}

func newSessionFeed(store chatkit.SessionStore) *sessionFeed {
	f := &sessionFeed{ch: make(chan struct{}, 1)}
	f.unsubscribe = store.Subscribe(func() {
		select {
		case f.ch <- struct{}{}:
		default:
		}
	})
	return f
}

func (f *sessionFeed) listen() tea.Cmd {
	return func() tea.Msg {
		<-f.ch
		return SessionChangedMsg{}
	}
}

func (f *sessionFeed) close() {
	f.unsubscribe()
}
