package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatkit"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg   lipgloss.Style
	ToolCall  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Italic    lipgloss.Style
	Selection lipgloss.Style
	Badge     lipgloss.Style
	Button    lipgloss.Style
	Overlay   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t chatkit.Theme) Styles {
	return Styles{
		UserMsg:   lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		ToolCall:  lipgloss.NewStyle().Foreground(ansiColor(t.ToolCall)),
		Error:     lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:   lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:     lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Italic:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Italic(true),
		Selection: lipgloss.NewStyle().Background(ansiColor(t.Selection)),
		Badge:     lipgloss.NewStyle().Background(ansiColor(t.Badge)).Padding(0, 1),
		Button:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Underline(true),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ansiColor(t.Accent)).
			Padding(0, 1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
