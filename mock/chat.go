package mock

import "github.com/fwojciec/chatkit"

// Interface compliance checks.
var (
	_ chatkit.ChatController   = (*ChatController)(nil)
	_ chatkit.Editor           = (*Editor)(nil)
	_ chatkit.Settings         = (*Settings)(nil)
	_ chatkit.Clipboard        = (*Clipboard)(nil)
	_ chatkit.TextSelection    = (*TextSelection)(nil)
	_ chatkit.MarkdownRenderer = (*MarkdownRenderer)(nil)
)

// ChatController is a test double for chatkit.ChatController.
type ChatController struct {
	RunModelFn        func(req chatkit.RunRequest)
	SetReplyContextFn func(text string)
	ReplyContextFn    func() string
	EditorFn          func() chatkit.Editor
}

func (c *ChatController) RunModel(req chatkit.RunRequest) {
	c.RunModelFn(req)
}

func (c *ChatController) SetReplyContext(text string) {
	c.SetReplyContextFn(text)
}

func (c *ChatController) ReplyContext() string {
	return c.ReplyContextFn()
}

func (c *ChatController) Editor() chatkit.Editor {
	return c.EditorFn()
}

// Editor is a test double for chatkit.Editor.
type Editor struct {
	ClearContentFn func()
	FocusFn        func(pos chatkit.FocusPosition)
}

func (e *Editor) ClearContent() {
	e.ClearContentFn()
}

func (e *Editor) Focus(pos chatkit.FocusPosition) {
	e.FocusFn(pos)
}

// Settings is a test double for chatkit.Settings.
type Settings struct {
	OpenFn func()
}

func (s *Settings) Open() {
	s.OpenFn()
}

// Clipboard is a test double for chatkit.Clipboard.
type Clipboard struct {
	CopyFn func(text string) error
}

func (c *Clipboard) Copy(text string) error {
	return c.CopyFn(text)
}

// TextSelection is a test double for chatkit.TextSelection.
type TextSelection struct {
	SelectedTextFn func() string
}

func (s *TextSelection) SelectedText() string {
	return s.SelectedTextFn()
}

// MarkdownRenderer is a test double for chatkit.MarkdownRenderer.
type MarkdownRenderer struct {
	RenderFn func(text string, streaming bool, messageID string, width int) string
}

func (r *MarkdownRenderer) Render(text string, streaming bool, messageID string, width int) string {
	return r.RenderFn(text, streaming, messageID, width)
}
