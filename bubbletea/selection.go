package bubbletea

import (
	"strings"

	"github.com/fwojciec/chatkit"
	"github.com/rivo/uniseg"
)

var _ chatkit.TextSelection = (*LineSelection)(nil)

// LineSelection is a keyboard-driven selection over the lines of one
// message. The anchor stays where selection started; the cursor moves with
// j/k and the selection spans both, inclusive.
type LineSelection struct {
	messageID string
	lines     []string
	anchor    int
	cursor    int
	active    bool
}

// NewLineSelection returns an inactive selection.
func NewLineSelection() *LineSelection {
	return &LineSelection{}
}

// Start selects the last non-blank line of text belonging to messageID.
func (s *LineSelection) Start(messageID, text string) {
	s.messageID = messageID
	s.lines = strings.Split(strings.TrimRight(text, "\n"), "\n")
	last := len(s.lines) - 1
	for last > 0 && strings.TrimSpace(s.lines[last]) == "" {
		last--
	}
	s.anchor, s.cursor = last, last
	s.active = true
}

// Extend moves the cursor by delta lines, clamped to the text.
func (s *LineSelection) Extend(delta int) {
	if !s.active {
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), len(s.lines)-1)
}

// Clear deactivates the selection.
func (s *LineSelection) Clear() {
	*s = LineSelection{}
}

// Active reports whether a selection is in progress.
func (s *LineSelection) Active() bool { return s.active }

// MessageID returns the message the selection belongs to.
func (s *LineSelection) MessageID() string { return s.messageID }

// Range returns the inclusive line bounds of the selection.
func (s *LineSelection) Range() (start, end int) {
	return min(s.anchor, s.cursor), max(s.anchor, s.cursor)
}

// Lines returns the text being selected from.
func (s *LineSelection) Lines() []string { return s.lines }

// SelectedText implements chatkit.TextSelection.
func (s *LineSelection) SelectedText() string {
	if !s.active {
		return ""
	}
	start, end := s.Range()
	return strings.Join(s.lines[start:end+1], "\n")
}

// Graphemes counts user-perceived characters in the selection.
func (s *LineSelection) Graphemes() int {
	return uniseg.GraphemeClusterCount(s.SelectedText())
}

// View renders the selectable lines with the selected span highlighted.
func (s *LineSelection) View(styles Styles) string {
	start, end := s.Range()
	out := make([]string, len(s.lines))
	for i, line := range s.lines {
		if s.active && i >= start && i <= end {
			out[i] = styles.Selection.Render("▌" + line)
			continue
		}
		out[i] = " " + line
	}
	return strings.Join(out, "\n")
}
