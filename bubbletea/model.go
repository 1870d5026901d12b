package bubbletea

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatkit"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Config holds the collaborators of the chat screen.
type Config struct {
	Sessions  chatkit.SessionStore
	Models    chatkit.ModelRegistry
	Tools     chatkit.ToolRegistry
	Prefs     chatkit.PreferencesStore
	Chat      *Controller
	Clipboard chatkit.Clipboard
	Markdown  chatkit.MarkdownRenderer
	Settings  *SettingsTrigger
	Theme     chatkit.Theme
	// Assistant answers new messages.
	Assistant chatkit.Assistant
}

type focusArea int

const (
	focusEditor focusArea = iota
	focusMessages
	focusSelecting
	focusPlugins
)

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	// Viewport is the scrollable message area. Exported for test access.
	Viewport viewport.Model

	cfg       Config
	styles    Styles
	feed      *sessionFeed
	editor    *Editor
	selection *LineSelection
	spinner   spinner.Model
	toggle    PluginToggle
	settings  SettingsView

	session  chatkit.Session
	bubbles  []MessageBubble
	selected int // index into bubbles, -1 = none
	focus    focusArea

	width int
	ready bool
}

// New creates the chat screen and subscribes it to the session store. Call
// Close when the program has exited.
func New(cfg Config) Model {
	if cfg.Settings == nil {
		cfg.Settings = NewSettingsTrigger()
	}
	styles := NewStyles(cfg.Theme)
	editor := NewEditor()
	cfg.Chat.SetEditor(editor)
	m := Model{
		cfg:       cfg,
		styles:    styles,
		feed:      newSessionFeed(cfg.Sessions),
		editor:    editor,
		selection: NewLineSelection(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent)),
		toggle: NewPluginToggle(cfg.Assistant.BaseModel, PluginDeps{
			Models: cfg.Models,
			Tools:  cfg.Tools,
			Prefs:  cfg.Prefs,
		}, styles),
		settings: NewSettingsView(cfg.Prefs, styles),
		selected: -1,
	}
	m = m.syncSession()
	return m
}

// Close detaches the model from the session store and the controller.
func (m Model) Close() {
	m.feed.close()
	m.toggle.Unmount()
	m.cfg.Chat.SetEditor(nil)
}

// Selection returns the line selection shared with the bubbles.
func (m Model) Selection() *LineSelection { return m.selection }

// Bubbles returns the rendered message bubbles.
func (m Model) Bubbles() []MessageBubble { return m.bubbles }

// Selected returns the index of the focused bubble, or -1.
func (m Model) Selected() int { return m.selected }

// Toggle returns the plugin toggle.
func (m Model) Toggle() PluginToggle { return m.toggle }

// Settings returns the settings overlay.
func (m Model) Settings() SettingsView { return m.settings }

// EditorValue returns the current draft.
func (m Model) EditorValue() string { return m.editor.Value() }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.feed.listen(),
		m.cfg.Settings.Listen(),
		m.toggle.Load(),
		m.spinner.Tick,
		textarea.Blink,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case SessionChangedMsg:
		m = m.syncSession()
		return m, m.feed.listen()

	case PreferencesChangedMsg:
		m.toggle = m.toggle.SetPlugins(msg.Prefs.DefaultPlugins)
		return m, nil

	case OpenSettingsMsg:
		var cmd tea.Cmd
		if !m.settings.IsOpen() {
			m.settings, cmd = m.settings.Open()
			m.editor.Blur()
		}
		return m, tea.Batch(cmd, m.cfg.Settings.Listen())

	case settingsLoadedMsg, settingsSavedMsg:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		if !m.settings.IsOpen() && m.focus == focusEditor {
			m.editor.Focus(chatkit.FocusEnd)
		}
		return m, cmd

	case scopedMsg:
		var cmd tea.Cmd
		m.toggle, cmd = m.toggle.Update(msg)
		return m, cmd

	case copyRevertMsg:
		m.bubbles = slices.Clone(m.bubbles)
		for i, b := range m.bubbles {
			if b.ID() == msg.id {
				m.bubbles[i], _ = b.Update(msg)
			}
		}
		return m.refresh(false), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.animating() {
			m = m.refresh(false)
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if m.focus == focusEditor && !m.settings.IsOpen() {
		cmds = append(cmds, m.editor.Update(msg))
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	switch {
	case m.settings.IsOpen():
		b.WriteString(m.place(m.settings.View(min(m.width, 72))))
	case m.toggle.IsOpen():
		b.WriteString(m.place(m.toggle.View(min(m.width, 72))))
	default:
		b.WriteString(m.Viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.replyLine())
	b.WriteString("\n")
	b.WriteString(m.editor.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) place(overlay string) string {
	return lipgloss.Place(m.Viewport.Width, m.Viewport.Height, lipgloss.Center, lipgloss.Center, overlay)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// reply line + editor + status line
	chrome := 1 + editorHeight + 1
	vpHeight := max(msg.Height-chrome, 1)
	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.editor.SetWidth(msg.Width)
	return m.refresh(true)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.cfg.Chat.Running() {
			m.cfg.Chat.Cancel()
			return m, nil
		}
		return m, tea.Quit
	}
	if m.settings.IsOpen() {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		if !m.settings.IsOpen() {
			m = m.afterSettings()
		}
		return m, cmd
	}
	if msg.Type == tea.KeyCtrlO {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Open()
		m.editor.Blur()
		return m, cmd
	}

	switch m.focus {
	case focusPlugins:
		var cmd tea.Cmd
		m.toggle, cmd = m.toggle.Update(msg)
		if !m.toggle.IsOpen() {
			m.focus = focusMessages
		}
		return m, cmd
	case focusSelecting:
		return m.handleSelectingKey(msg)
	case focusMessages:
		return m.handleMessagesKey(msg)
	}
	return m.handleEditorKey(msg)
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.send(), nil
	case tea.KeyEsc:
		m.editor.Blur()
		m.focus = focusMessages
		if m.selected < 0 && len(m.bubbles) > 0 {
			m.selected = len(m.bubbles) - 1
		}
		return m.refresh(false), nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.Viewport, cmd = m.Viewport.Update(msg)
		return m, cmd
	}
	return m, m.editor.Update(msg)
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if b, ok := m.selectedBubble(); ok && b.Modal() {
		return m.updateSelected(msg)
	}
	switch msg.String() {
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m.refresh(false).scrollToSelected(), nil
	case "down":
		if m.selected < len(m.bubbles)-1 {
			m.selected++
		}
		return m.refresh(false).scrollToSelected(), nil
	case "esc", "i", "tab":
		return m.focusEditor(), nil
	case "p":
		var cmd tea.Cmd
		m.toggle, cmd = m.toggle.Open()
		if m.toggle.IsOpen() {
			m.focus = focusPlugins
		}
		return m, cmd
	case "v":
		b, ok := m.selectedBubble()
		if !ok || b.Message().RawAI == "" || !b.Message().ShowsActions() {
			return m, nil
		}
		m.selection.Start(b.ID(), b.Message().RawAI)
		m.focus = focusSelecting
		return m.refresh(false), nil
	}
	return m.updateSelected(msg)
}

func (m Model) handleSelectingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.selection.Extend(1)
	case "k", "up":
		m.selection.Extend(-1)
	case "y", "enter":
		if b, ok := m.selectedBubble(); ok {
			m.bubbles = slices.Clone(m.bubbles)
			m.bubbles[m.selected] = b.Reply()
		}
		m.selection.Clear()
		m.focus = focusMessages
		if m.editor.Focused() {
			m.focus = focusEditor
		}
	case "esc":
		m.selection.Clear()
		m.focus = focusMessages
	}
	return m.refresh(false), nil
}

// updateSelected forwards msg to the focused bubble.
func (m Model) updateSelected(msg tea.Msg) (tea.Model, tea.Cmd) {
	b, ok := m.selectedBubble()
	if !ok {
		return m, nil
	}
	b, cmd := b.Update(msg)
	m.bubbles = slices.Clone(m.bubbles)
	m.bubbles[m.selected] = b
	if m.editor.Focused() {
		m.focus = focusEditor
	}
	// Delete and regenerate mutate the store synchronously; pick up the
	// result now rather than waiting for the notification round trip.
	m = m.syncSession()
	return m, cmd
}

func (m Model) selectedBubble() (MessageBubble, bool) {
	if m.selected < 0 || m.selected >= len(m.bubbles) {
		return MessageBubble{}, false
	}
	return m.bubbles[m.selected], true
}

// afterSettings returns focus to the plugin popover when settings were
// opened over it, and to the editor otherwise.
func (m Model) afterSettings() Model {
	if m.toggle.IsOpen() {
		m.focus = focusPlugins
		return m.refresh(false)
	}
	return m.focusEditor()
}

func (m Model) focusEditor() Model {
	m.focus = focusEditor
	m.editor.Focus(chatkit.FocusEnd)
	return m.refresh(false)
}

// send starts generation for the draft, prefixed with the reply context.
func (m Model) send() Model {
	text := strings.TrimSpace(m.editor.Value())
	if text == "" || m.cfg.Chat.Running() {
		return m
	}
	input := text
	if rc := m.cfg.Chat.ReplyContext(); rc != "" {
		input = quote(rc) + "\n\n" + text
		m.cfg.Chat.SetReplyContext("")
	}
	m.editor.ClearContent()
	m.cfg.Chat.RunModel(chatkit.RunRequest{
		Input:     input,
		Assistant: m.cfg.Assistant,
		SessionID: m.session.ID,
	})
	m = m.syncSession()
	m.selected = len(m.bubbles) - 1
	return m.refresh(true)
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

// syncSession re-reads the store and reconciles bubbles by message ID so
// local state such as a pending delete confirmation survives updates.
func (m Model) syncSession() Model {
	m.session = m.cfg.Sessions.CurrentSession()
	prev := make(map[string]MessageBubble, len(m.bubbles))
	for _, b := range m.bubbles {
		prev[b.ID()] = b
	}
	var selectedID string
	if b, ok := m.selectedBubble(); ok {
		selectedID = b.ID()
	}
	deps := m.bubbleDeps()
	bubbles := make([]MessageBubble, len(m.session.Messages))
	for i, msg := range m.session.Messages {
		isLast := i == len(m.session.Messages)-1
		if b, ok := prev[msg.ID]; ok {
			bubbles[i] = b.SetMessage(msg, isLast)
			continue
		}
		bubbles[i] = NewMessageBubble(msg, isLast, deps, m.styles)
	}
	m.bubbles = bubbles

	m.selected = -1
	for i, b := range bubbles {
		if b.ID() == selectedID {
			m.selected = i
		}
	}
	if m.selected < 0 && m.focus != focusEditor && len(bubbles) > 0 {
		m.selected = len(bubbles) - 1
	}
	if m.selection.Active() && m.session.Index(m.selection.MessageID()) < 0 {
		m.selection.Clear()
		m.focus = focusMessages
	}
	return m.refresh(m.following())
}

func (m Model) bubbleDeps() BubbleDeps {
	return BubbleDeps{
		Chat:      m.cfg.Chat,
		Sessions:  m.cfg.Sessions,
		Settings:  m.cfg.Settings,
		Models:    m.cfg.Models,
		Tools:     m.cfg.Tools,
		Markdown:  m.cfg.Markdown,
		Clipboard: m.cfg.Clipboard,
		Selection: m.selection,
	}
}

// following reports whether new content should keep the view at the bottom.
func (m Model) following() bool {
	return m.focus == focusEditor || m.Viewport.AtBottom()
}

func (m Model) animating() bool {
	for _, b := range m.bubbles {
		msg := b.Message()
		if msg.Loading || msg.ToolRunning {
			return true
		}
	}
	return false
}

// refresh re-renders the message list into the viewport.
func (m Model) refresh(bottom bool) Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	if bottom {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) scrollToSelected() Model {
	if m.selected < 0 {
		return m
	}
	offset := 0
	for i := 0; i < m.selected; i++ {
		offset += lipgloss.Height(m.renderBubble(i)) + 1
	}
	m.Viewport.SetYOffset(offset)
	return m
}

func (m Model) renderContent() string {
	if len(m.bubbles) == 0 {
		return m.styles.Muted.Render("No messages yet. Type below and press Enter.")
	}
	parts := make([]string, len(m.bubbles))
	for i := range m.bubbles {
		parts[i] = m.renderBubble(i)
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderBubble(i int) string {
	width := max(m.Viewport.Width-2, 10)
	b := m.bubbles[i].SetFrame(m.spinner.View())
	user := m.styles.UserMsg.Render("> ") + b.Message().RawHuman
	user = lipgloss.NewStyle().Width(width).Render(user)

	body := b.View(width)
	if m.focus == focusSelecting && i == m.selected && m.selection.Active() {
		body = m.selection.View(m.styles)
	}

	gutter := "  "
	if i == m.selected && m.focus != focusEditor {
		gutter = m.styles.Accent.Render("▌ ")
	}
	block := user + "\n" + body
	lines := strings.Split(block, "\n")
	for j, l := range lines {
		lines[j] = gutter + l
	}
	return strings.Join(lines, "\n")
}

func (m Model) replyLine() string {
	rc := m.cfg.Chat.ReplyContext()
	if rc == "" {
		return ""
	}
	first, _, _ := strings.Cut(rc, "\n")
	prefix := "↪ Replying to: "
	avail := max(m.width-runewidth.StringWidth(prefix), 4)
	return m.styles.Muted.Render(prefix + runewidth.Truncate(first, avail, "…"))
}

func (m Model) statusLine() string {
	var left string
	switch {
	case m.cfg.Chat.Running():
		left = "Generating... ctrl+c to stop"
	case m.focus == focusSelecting:
		left = fmt.Sprintf("%d chars selected · j/k extend · y reply · esc cancel", m.selection.Graphemes())
	case m.focus == focusMessages:
		left = "↑/↓ select · c copy · d delete · r regenerate · v select · k api key · p plugins · esc back"
	default:
		left = "Enter to send · esc messages · ctrl+o settings · ctrl+c quit"
	}
	right := m.cfg.Assistant.Name
	if badge := m.toggle.Badge(); badge != "" {
		right += " " + badge
	}
	left = m.styles.Muted.Render(runewidth.Truncate(left, max(m.width-lipgloss.Width(right)-1, 0), "…"))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}
