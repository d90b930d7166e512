package moya

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	Error   int // Error messages, error-status indicators
	Success int // Sent-status indicators
	Muted   int // Status bar, placeholders, pending indicators
	Accent  int // Headings, links, catalog titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
