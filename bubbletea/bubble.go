package bubbletea

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatkit"
	"github.com/sahilm/fuzzy"
)

// CopyRevertDelay is how long the copy acknowledgment stays visible.
const CopyRevertDelay = 2 * time.Second

// Indicator and banner texts.
const (
	thinkingText       = "Thinking ..."
	typingText         = "Typing ..."
	cancelBannerText   = "Chat session ended"
	apiKeyBannerText   = "Invalid API Key"
	recursionText      = "Recursion detected"
	errorBannerText    = "Something went wrong. please make sure your api is working properly"
	checkAPIKeyText    = "Check API Key"
	copiedText         = "✓ Copied"
	deleteConfirmText  = "Delete this message?"
	regeneratePrompt   = "Regenerate with:"
	noAssistantMatches = "no matching assistants"
)

// BubbleDeps are the collaborators of a MessageBubble. The bubble never
// mutates the message directly; every side effect goes through these.
type BubbleDeps struct {
	Chat      chatkit.ChatController
	Sessions  chatkit.SessionStore
	Settings  chatkit.Settings
	Models    chatkit.ModelRegistry
	Tools     chatkit.ToolRegistry
	Markdown  chatkit.MarkdownRenderer
	Clipboard chatkit.Clipboard
	Selection chatkit.TextSelection
}

// copyRevertMsg clears the copy acknowledgment of bubble id. Ticks from an
// older copy carry a stale gen and are ignored.
type copyRevertMsg struct {
	id  string
	gen int
}

// MessageBubble renders one assistant message: content, tool status, stop
// banner and the action row. It is a value type; the root model owns one per
// message and replaces its copy of the message on every session change.
type MessageBubble struct {
	msg    chatkit.Message
	isLast bool
	deps   BubbleDeps
	styles Styles
	frame  string

	copied  bool
	copyGen int

	confirmingDelete bool
	picker           assistantPicker
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg chatkit.Message, isLast bool, deps BubbleDeps, styles Styles) MessageBubble {
	return MessageBubble{
		msg:    msg,
		isLast: isLast,
		deps:   deps,
		styles: styles,
		frame:  spinner.Dot.Frames[0],
	}
}

func (b MessageBubble) ID() string               { return b.msg.ID }
func (b MessageBubble) Message() chatkit.Message { return b.msg }
func (b MessageBubble) IsLast() bool             { return b.isLast }
func (b MessageBubble) Copied() bool             { return b.copied }
func (b MessageBubble) ConfirmingDelete() bool   { return b.confirmingDelete }
func (b MessageBubble) PickerOpen() bool         { return b.picker.open }

// Modal reports whether the bubble is capturing keys for an inline dialog.
func (b MessageBubble) Modal() bool { return b.confirmingDelete || b.picker.open }

// SetMessage replaces the message while keeping local UI state. Dialogs that
// are no longer valid for the new state are closed.
func (b MessageBubble) SetMessage(msg chatkit.Message, isLast bool) MessageBubble {
	b.msg = msg
	b.isLast = isLast
	if !msg.ShowsActions() {
		b.confirmingDelete = false
		b.picker = assistantPicker{}
	}
	if !isLast {
		b.picker = assistantPicker{}
	}
	return b
}

// SetFrame sets the spinner frame drawn next to progress indicators.
func (b MessageBubble) SetFrame(frame string) MessageBubble {
	b.frame = frame
	return b
}

// Copy writes the raw assistant text to the clipboard and shows the
// acknowledgment until CopyRevertDelay elapses.
func (b MessageBubble) Copy() (MessageBubble, tea.Cmd) {
	if b.msg.RawAI == "" {
		return b, nil
	}
	if err := b.deps.Clipboard.Copy(b.msg.RawAI); err != nil {
		slog.Error("copy message", "message", b.msg.ID, "error", err)
		return b, nil
	}
	b.copied = true
	b.copyGen++
	id, gen := b.msg.ID, b.copyGen
	return b, tea.Tick(CopyRevertDelay, func(time.Time) tea.Msg {
		return copyRevertMsg{id: id, gen: gen}
	})
}

// RequestDelete opens the inline delete confirmation.
func (b MessageBubble) RequestDelete() MessageBubble {
	if !b.msg.ShowsActions() {
		return b
	}
	b.picker = assistantPicker{}
	b.confirmingDelete = true
	return b
}

// ConfirmDelete removes the message. It does nothing unless a confirmation
// is pending, so a message is removed at most once per request.
func (b MessageBubble) ConfirmDelete() MessageBubble {
	if !b.confirmingDelete {
		return b
	}
	b.confirmingDelete = false
	if err := b.deps.Sessions.RemoveMessage(b.msg.ID); err != nil {
		slog.Error("remove message", "message", b.msg.ID, "error", err)
	}
	return b
}

// CancelDelete closes the confirmation without side effects.
func (b MessageBubble) CancelDelete() MessageBubble {
	b.confirmingDelete = false
	return b
}

// CanRegenerate reports whether regeneration is offered.
func (b MessageBubble) CanRegenerate() bool {
	return b.isLast && b.msg.ShowsActions()
}

// OpenRegenerate shows the assistant picker.
func (b MessageBubble) OpenRegenerate() MessageBubble {
	if !b.CanRegenerate() {
		return b
	}
	b.confirmingDelete = false
	b.picker = assistantPicker{open: true, all: b.deps.Models.Assistants()}
	return b
}

// Regenerate reruns the message with the assistant identified by key.
// Unknown keys are ignored.
func (b MessageBubble) Regenerate(key chatkit.AssistantKey) MessageBubble {
	b.picker = assistantPicker{}
	if !b.CanRegenerate() {
		return b
	}
	a, ok := b.deps.Models.AssistantByKey(key)
	if !ok {
		slog.Debug("regenerate with unknown assistant", "assistant", key)
		return b
	}
	b.deps.Chat.RunModel(chatkit.RunRequest{
		Input:     b.msg.RawHuman,
		MessageID: b.msg.ID,
		Assistant: a,
		SessionID: b.msg.SessionID,
	})
	return b
}

// Reply turns the current text selection into reply context for the next
// message and moves the cursor to the end of the emptied draft.
func (b MessageBubble) Reply() MessageBubble {
	text := b.deps.Selection.SelectedText()
	if strings.TrimSpace(text) == "" {
		return b
	}
	b.deps.Chat.SetReplyContext(text)
	if ed := b.deps.Chat.Editor(); ed != nil {
		ed.ClearContent()
		ed.Focus(chatkit.FocusEnd)
	}
	return b
}

// CheckAPIKey opens settings from the error and api key banners.
func (b MessageBubble) CheckAPIKey() MessageBubble {
	switch b.msg.Status() {
	case chatkit.StatusStoppedError, chatkit.StatusStoppedAPIKey:
		b.deps.Settings.Open()
	}
	return b
}

// Update handles copy-revert ticks and keys while the bubble is focused.
func (b MessageBubble) Update(msg tea.Msg) (MessageBubble, tea.Cmd) {
	switch msg := msg.(type) {
	case copyRevertMsg:
		if msg.id == b.msg.ID && msg.gen == b.copyGen {
			b.copied = false
		}
		return b, nil
	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b, nil
}

func (b MessageBubble) handleKey(msg tea.KeyMsg) (MessageBubble, tea.Cmd) {
	if b.picker.open {
		return b.handlePickerKey(msg), nil
	}
	if b.confirmingDelete {
		switch msg.String() {
		case "y", "enter":
			return b.ConfirmDelete(), nil
		case "n", "esc":
			return b.CancelDelete(), nil
		}
		return b, nil
	}
	switch msg.String() {
	case "c":
		if b.msg.ShowsActions() {
			return b.Copy()
		}
	case "d":
		return b.RequestDelete(), nil
	case "r":
		return b.OpenRegenerate(), nil
	case "k":
		return b.CheckAPIKey(), nil
	}
	return b, nil
}

func (b MessageBubble) handlePickerKey(msg tea.KeyMsg) MessageBubble {
	switch msg.Type {
	case tea.KeyEsc:
		b.picker = assistantPicker{}
	case tea.KeyEnter:
		matches := b.picker.matches()
		if len(matches) == 0 {
			return b
		}
		return b.Regenerate(matches[b.picker.cursor].Key)
	case tea.KeyUp, tea.KeyCtrlP:
		b.picker = b.picker.move(-1)
	case tea.KeyDown, tea.KeyCtrlN:
		b.picker = b.picker.move(1)
	case tea.KeyBackspace:
		if f := []rune(b.picker.filter); len(f) > 0 {
			b.picker.filter = string(f[:len(f)-1])
			b.picker.cursor = 0
		}
	case tea.KeyRunes:
		b.picker.filter += string(msg.Runes)
		b.picker.cursor = 0
	}
	return b
}

// View renders the assistant part of the message.
func (b MessageBubble) View(width int) string {
	var parts []string
	if line := b.toolLine(); line != "" {
		parts = append(parts, line)
	}
	if b.msg.RawAI != "" {
		body := b.deps.Markdown.Render(b.msg.RawAI, b.msg.Loading, b.msg.ID, width)
		parts = append(parts, strings.TrimRight(body, "\n"))
	}
	switch b.msg.Status() {
	case chatkit.StatusPending:
		parts = append(parts, b.styles.Muted.Render(b.frame+" "+thinkingText))
	case chatkit.StatusStreaming:
		parts = append(parts, b.styles.Muted.Render(b.frame+" "+typingText))
	}
	if banner := b.banner(); banner != "" {
		parts = append(parts, banner)
	}
	if b.msg.ShowsActions() {
		parts = append(parts, b.actionRow(width))
	}
	if b.picker.open {
		parts = append(parts, b.pickerView())
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(parts, "\n"))
}

func (b MessageBubble) toolLine() string {
	use, ok := chatkit.ResolveTool(b.deps.Tools, b.msg.ToolName)
	if !ok {
		return ""
	}
	if !use.Known {
		return b.styles.Error.Render("unknown tool: " + use.Name)
	}
	d := use.Descriptor
	if b.msg.ToolRunning {
		return b.styles.ToolCall.Render(fmt.Sprintf("%s %s %s ...", b.frame, d.Icon, d.LoadingMessage))
	}
	return b.styles.Muted.Render(d.SmallIcon + " " + d.ResultMessage)
}

func (b MessageBubble) banner() string {
	switch b.msg.Status() {
	case chatkit.StatusStoppedCancel:
		return b.styles.Italic.Render(cancelBannerText)
	case chatkit.StatusStoppedAPIKey:
		return b.styles.Error.Render("⚠ "+apiKeyBannerText) + "  " + b.checkButton()
	case chatkit.StatusStoppedRecursion:
		return recursionText
	case chatkit.StatusStoppedError:
		return b.styles.Error.Render("✗ "+errorBannerText) + "  " + b.checkButton()
	}
	return ""
}

func (b MessageBubble) checkButton() string {
	return b.styles.Button.Render("[k] " + checkAPIKeyText)
}

func (b MessageBubble) actionRow(width int) string {
	var left string
	switch {
	case b.confirmingDelete:
		left = b.styles.Error.Render(deleteConfirmText) + " " + b.styles.Muted.Render("y confirm · n cancel")
	default:
		actions := []string{"c copy", "d delete"}
		if b.CanRegenerate() {
			actions = append(actions, "r regenerate")
		}
		actions = append(actions, "v reply")
		left = b.styles.Muted.Render(strings.Join(actions, " · "))
		if b.copied {
			left = b.styles.Success.Render(copiedText) + "  " + left
		}
	}
	right := b.styles.Muted.Render(b.modelName())
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func (b MessageBubble) modelName() string {
	a := b.msg.Input.Assistant
	if m, ok := b.deps.Models.ModelByKey(a.BaseModel); ok {
		if m.Icon != "" {
			return m.Icon + " " + m.Name
		}
		return m.Name
	}
	return a.Name
}

func (b MessageBubble) pickerView() string {
	lines := []string{b.styles.Accent.Render(regeneratePrompt) + " " + b.picker.filter}
	matches := b.picker.matches()
	if len(matches) == 0 {
		lines = append(lines, b.styles.Muted.Render("  "+noAssistantMatches))
	}
	for i, a := range matches {
		marker := "  "
		if i == b.picker.cursor {
			marker = b.styles.Accent.Render("› ")
		}
		lines = append(lines, marker+a.Name)
	}
	return strings.Join(lines, "\n")
}

// assistantPicker is the regenerate menu. The filter narrows the list with
// fuzzy matching on assistant names.
type assistantPicker struct {
	open   bool
	all    []chatkit.Assistant
	filter string
	cursor int
}

func (p assistantPicker) matches() []chatkit.Assistant {
	if p.filter == "" {
		return p.all
	}
	names := make([]string, len(p.all))
	for i, a := range p.all {
		names[i] = a.Name
	}
	found := fuzzy.Find(p.filter, names)
	out := make([]chatkit.Assistant, len(found))
	for i, m := range found {
		out[i] = p.all[m.Index]
	}
	return out
}

func (p assistantPicker) move(delta int) assistantPicker {
	n := len(p.matches())
	if n == 0 {
		p.cursor = 0
		return p
	}
	p.cursor = (p.cursor + delta + n) % n
	return p
}
