package bubbletea

import tea "github.com/charmbracelet/bubbletea"

const (
	FieldOpenAIKey  = fieldOpenAIKey
	FieldGeminiKey  = fieldGeminiKey
	FieldSearchRoot = fieldSearchRoot
)

// CopyRevert builds the message that clears a copy acknowledgment.
func CopyRevert(id string, gen int) tea.Msg {
	return copyRevertMsg{id: id, gen: gen}
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// Focus reports the focus area by name.
func Focus(m Model) string {
	switch m.focus {
	case focusMessages:
		return "messages"
	case focusSelecting:
		return "selecting"
	case focusPlugins:
		return "plugins"
	}
	return "editor"
}

// WatchPreferences exports watchPreferences for testing.
var WatchPreferences = watchPreferences
