package bubbletea

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/montycloud/moya"
)

// Styles holds the lipgloss styles derived from a theme. All views
// pull their colors from here rather than constructing styles inline.
type Styles struct {
	UserMsg lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
}

// NewStyles builds the style set from theme colors.
func NewStyles(theme moya.Theme) Styles {
	return Styles{
		UserMsg: lipgloss.NewStyle().Foreground(ansiColor(theme.UserMsg)),
		Error:   lipgloss.NewStyle().Foreground(ansiColor(theme.Error)),
		Success: lipgloss.NewStyle().Foreground(ansiColor(theme.Success)),
		Muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)),
		Accent:  lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
	}
}

func ansiColor(n int) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("%d", n))
}
