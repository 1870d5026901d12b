package chatkit

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. Negative indices mean no color.
type Theme struct {
	UserMsg   int // User message accent
	ToolCall  int // Tool status line
	Error     int // Error banners
	Success   int // Copied acknowledgment, enabled switches
	Muted     int // Status bar, placeholders, model name
	Accent    int // Headings, links, focused bubble marker
	Selection int // Selected text background
	Badge     int // Plugin count badge background
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		ToolCall:  3,
		Error:     1,
		Success:   2,
		Muted:     8,
		Accent:    5,
		Selection: 4,
		Badge:     6,
	}
}
