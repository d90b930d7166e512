package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/montycloud/moya"
)

var _ MessageBlock = (*UserBlock)(nil)

// UserBlock renders a user message with a "> " prefix and a status
// indicator for non-sent states. A user message always stays visible,
// whatever happened to its turn.
type UserBlock struct {
	text   string
	status moya.MessageStatus
	styles Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(text string, status moya.MessageStatus, styles Styles) *UserBlock {
	return &UserBlock{text: text, status: status, styles: styles}
}

// SetStatus updates the status indicator.
func (b *UserBlock) SetStatus(status moya.MessageStatus) {
	b.status = status
}

func (b *UserBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.text
	switch b.status {
	case moya.StatusSending:
		content += " " + b.styles.Muted.Render("…")
	case moya.StatusError:
		content += " " + b.styles.Error.Render("✗ not delivered")
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
