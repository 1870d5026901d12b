package chatkit

// RunRequest asks the chat controller to (re)generate a message.
type RunRequest struct {
	Input     string
	MessageID string // empty = new message
	Assistant Assistant
	SessionID string
}

// ChatController drives generation and owns the input editor.
type ChatController interface {
	// RunModel starts generation in the background. Progress is observed
	// through the SessionStore.
	RunModel(req RunRequest)
	SetReplyContext(text string)
	ReplyContext() string
	// Editor returns the input editor, or nil before the UI is mounted.
	Editor() Editor
}

// FocusPosition selects where the editor cursor lands on focus.
type FocusPosition int

const (
	FocusStart FocusPosition = iota
	FocusEnd
)

// Editor is the draft input handle.
type Editor interface {
	ClearContent()
	Focus(pos FocusPosition)
}

// Settings opens the settings surface.
type Settings interface {
	Open()
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// TextSelection exposes the currently selected span of rendered text.
type TextSelection interface {
	SelectedText() string
}

// MarkdownRenderer renders message text for display. Implementations must
// tolerate incomplete markdown while streaming is true.
type MarkdownRenderer interface {
	Render(text string, streaming bool, messageID string, width int) string
}
