package bubbletea

import (
	"strings"

	"github.com/montycloud/moya"
	"github.com/montycloud/moya/markdown"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders streamed assistant text with markdown
// formatting. Finalized paragraphs (separated by double newline) are
// rendered once and cached; only the trailing unfinalized text is
// re-rendered on each delta.
type AssistantBlock struct {
	content strings.Builder
	status  moya.MessageStatus
	theme   moya.Theme
	styles  Styles

	// finalizedRaw is the stable prefix ending at the last double
	// newline. It's rendered once per width and cached.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantBlock creates a new block for streaming assistant text.
func NewAssistantBlock(theme moya.Theme, styles Styles) *AssistantBlock {
	return &AssistantBlock{
		status:           moya.StatusStreaming,
		theme:            theme,
		styles:           styles,
		finalizedByWidth: make(map[int]string),
	}
}

// Append adds a content delta from the stream.
func (b *AssistantBlock) Append(text string) {
	b.content.WriteString(text)
	b.promoteFinalized()
}

// SetStatus resolves the block's terminal status.
func (b *AssistantBlock) SetStatus(status moya.MessageStatus) {
	b.status = status
}

// Text returns the raw accumulated content.
func (b *AssistantBlock) Text() string {
	return b.content.String()
}

func (b *AssistantBlock) View(width int) string {
	if b.content.Len() == 0 {
		switch b.status {
		case moya.StatusError:
			return b.styles.Error.Render("✗ no response")
		default:
			return b.styles.Muted.Render("…")
		}
	}

	finalizedRendered := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close fence only for rendering so partial streams display
		// safely.
		trailing += "\n```"
	}
	if trailing == "" {
		return finalizedRendered
	}
	trailingRendered := markdown.Render(trailing, width, b.theme)
	if strings.TrimSpace(trailingRendered) == "" {
		return finalizedRendered
	}
	if finalizedRendered == "" {
		return trailingRendered
	}
	// Trim whitespace at the finalization boundary so independently
	// rendered fragments don't show a seam of extra blank lines.
	return strings.TrimRight(finalizedRendered, "\n") + "\n\n" + strings.TrimLeft(trailingRendered, "\n")
}

// promoteFinalized scans for the last "\n\n" boundary outside an
// unclosed fenced code block. Splitting inside a fence would leave a
// finalized fragment with an unclosed opening fence and a trailing
// fragment starting mid-code-block.
func (b *AssistantBlock) promoteFinalized() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				// Width-keyed cache is stale once finalized text grows.
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := markdown.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantBlock) trailingRaw() string {
	raw := b.content.String()
	if b.finalizedRaw == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence detects an unclosed fenced code block by counting
// "```" occurrences. Odd count = open fence. Triple backticks inside
// inline code spans would miscount, but they are rare in streamed
// output.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
