package bubbletea

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
)

var _ chatkit.Editor = (*Editor)(nil)

const editorHeight = 3

// Editor is the draft input. It is shared by pointer between the root model
// and the chat controller so bubbles can clear and focus it.
type Editor struct {
	textarea textarea.Model
}

// NewEditor creates a focused, empty editor.
func NewEditor() *Editor {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(editorHeight)
	// Enter sends; newlines need a modifier.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()
	return &Editor{textarea: ta}
}

// ClearContent implements chatkit.Editor.
func (e *Editor) ClearContent() {
	e.textarea.Reset()
}

// Focus implements chatkit.Editor.
func (e *Editor) Focus(pos chatkit.FocusPosition) {
	e.textarea.Focus()
	switch pos {
	case chatkit.FocusEnd:
		// SetValue leaves the cursor after the last character.
		e.textarea.SetValue(e.textarea.Value())
	case chatkit.FocusStart:
		for e.textarea.Line() > 0 {
			e.textarea.CursorUp()
		}
		e.textarea.CursorStart()
	}
}

func (e *Editor) Blur()             { e.textarea.Blur() }
func (e *Editor) Focused() bool     { return e.textarea.Focused() }
func (e *Editor) Value() string     { return e.textarea.Value() }
func (e *Editor) SetValue(s string) { e.textarea.SetValue(s) }
func (e *Editor) SetWidth(w int)    { e.textarea.SetWidth(w) }
func (e *Editor) View() string      { return e.textarea.View() }

// Update forwards msg to the textarea.
func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return cmd
}
