package bubbletea

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
)

var _ chatkit.Settings = (*SettingsTrigger)(nil)

// SettingsTrigger implements chatkit.Settings for callers outside the Update
// loop, such as tool validators. Open requests are delivered to the root
// model as OpenSettingsMsg; repeated requests before delivery collapse.
type SettingsTrigger struct {
	ch chan struct{}
}

// NewSettingsTrigger creates a SettingsTrigger.
func NewSettingsTrigger() *SettingsTrigger {
	return &SettingsTrigger{ch: make(chan struct{}, 1)}
}

// Open implements chatkit.Settings. It never blocks.
func (t *SettingsTrigger) Open() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// Listen waits for the next Open request.
func (t *SettingsTrigger) Listen() tea.Cmd {
	return func() tea.Msg {
		<-t.ch
		return OpenSettingsMsg{}
	}
}

const (
	fieldOpenAIKey = iota
	fieldGeminiKey
	fieldSearchRoot
	fieldCount
)

type settingsLoadedMsg struct {
	prefs chatkit.Preferences
	err   error
}

type settingsSavedMsg struct {
	err error
}

// SettingsView is the settings overlay: API keys and the search root.
type SettingsView struct {
	prefs  chatkit.PreferencesStore
	styles Styles

	open   bool
	inputs []textinput.Model
	focus  int
	err    error
}

// NewSettingsView creates a closed settings overlay.
func NewSettingsView(prefs chatkit.PreferencesStore, styles Styles) SettingsView {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 0
		inputs[i] = ti
	}
	inputs[fieldOpenAIKey].Placeholder = "sk-..."
	inputs[fieldOpenAIKey].EchoMode = textinput.EchoPassword
	inputs[fieldGeminiKey].Placeholder = "AIza..."
	inputs[fieldGeminiKey].EchoMode = textinput.EchoPassword
	inputs[fieldSearchRoot].Placeholder = "/path/to/notes"
	return SettingsView{prefs: prefs, styles: styles, inputs: inputs}
}

func (s SettingsView) IsOpen() bool { return s.open }

// Err returns the last save error.
func (s SettingsView) Err() error { return s.err }

// Open shows the overlay and loads the current values.
func (s SettingsView) Open() (SettingsView, tea.Cmd) {
	s.open = true
	s.err = nil
	s.focus = fieldOpenAIKey
	s = s.focusInput()
	prefs := s.prefs
	return s, func() tea.Msg {
		p, err := prefs.Get(context.Background())
		return settingsLoadedMsg{prefs: p, err: err}
	}
}

// Close hides the overlay without saving.
func (s SettingsView) Close() SettingsView {
	s.open = false
	s.inputs = slices.Clone(s.inputs)
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	return s
}

// Patch builds the preferences update from the current field values.
func (s SettingsView) Patch() chatkit.PreferencesPatch {
	openai := strings.TrimSpace(s.inputs[fieldOpenAIKey].Value())
	gemini := strings.TrimSpace(s.inputs[fieldGeminiKey].Value())
	root := strings.TrimSpace(s.inputs[fieldSearchRoot].Value())
	return chatkit.PreferencesPatch{
		OpenAIAPIKey: &openai,
		GeminiAPIKey: &gemini,
		SearchRoot:   &root,
	}
}

// SetValue sets field i. Used by tests and by callers seeding the form.
func (s SettingsView) SetValue(i int, v string) SettingsView {
	s.inputs = slices.Clone(s.inputs)
	s.inputs[i].SetValue(v)
	return s
}

// Value returns field i.
func (s SettingsView) Value(i int) string { return s.inputs[i].Value() }

func (s SettingsView) save() tea.Cmd {
	prefs, patch := s.prefs, s.Patch()
	return func() tea.Msg {
		return settingsSavedMsg{err: prefs.Set(context.Background(), patch)}
	}
}

// Update handles load and save results and keys while open.
func (s SettingsView) Update(msg tea.Msg) (SettingsView, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.err != nil {
			slog.Error("load settings", "error", msg.err)
			s.err = msg.err
			return s, nil
		}
		s.inputs = slices.Clone(s.inputs)
		s.inputs[fieldOpenAIKey].SetValue(msg.prefs.OpenAIAPIKey)
		s.inputs[fieldGeminiKey].SetValue(msg.prefs.GeminiAPIKey)
		s.inputs[fieldSearchRoot].SetValue(msg.prefs.SearchRoot)
		return s, nil
	case settingsSavedMsg:
		if msg.err != nil {
			slog.Error("save settings", "error", msg.err)
			s.err = msg.err
			return s, nil
		}
		return s.Close(), nil
	case tea.KeyMsg:
		if !s.open {
			return s, nil
		}
		switch msg.Type {
		case tea.KeyEsc:
			return s.Close(), nil
		case tea.KeyEnter:
			return s, s.save()
		case tea.KeyTab, tea.KeyDown:
			s.focus = (s.focus + 1) % fieldCount
			return s.focusInput(), nil
		case tea.KeyShiftTab, tea.KeyUp:
			s.focus = (s.focus - 1 + fieldCount) % fieldCount
			return s.focusInput(), nil
		}
		var cmd tea.Cmd
		s.inputs = slices.Clone(s.inputs)
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s SettingsView) focusInput() SettingsView {
	inputs := slices.Clone(s.inputs)
	for i := range inputs {
		if i == s.focus {
			inputs[i].Focus()
			continue
		}
		inputs[i].Blur()
	}
	s.inputs = inputs
	return s
}

// View renders the overlay.
func (s SettingsView) View(width int) string {
	if !s.open {
		return ""
	}
	labels := [fieldCount]string{"OpenAI API key", "Gemini API key", "Search root"}
	inner := max(width-4, 30)
	var b strings.Builder
	b.WriteString(s.styles.Accent.Render("Settings"))
	for i, ti := range s.inputs {
		b.WriteString("\n\n")
		label := labels[i]
		if i == s.focus {
			label = s.styles.Accent.Render("› " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n  " + ti.View())
	}
	if s.err != nil {
		b.WriteString("\n\n" + s.styles.Error.Render("Error: "+s.err.Error()))
	}
	b.WriteString("\n\n" + s.styles.Muted.Render("tab next · enter save · esc cancel"))
	return s.styles.Overlay.Width(inner).Render(b.String())
}
