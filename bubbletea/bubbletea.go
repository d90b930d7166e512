// Package bubbletea provides a Bubble Tea TUI over the chat session
// core: a starter-prompt selection view and a chat view with a live
// streaming transcript.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/montycloud/moya"
	"github.com/montycloud/moya/session"
)

// Session is the slice of the session controller the TUI drives.
type Session interface {
	Send(ctx context.Context, text string, opts ...session.SendOption) error
	Messages() []moya.Message
	Connection() moya.Connection
	Processing() bool
	Retry()
	Reset()
	StarterPrompts(ctx context.Context) []moya.PromptCategory
}

// Interface compliance check.
var _ Session = (*session.Controller)(nil)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. Cancelling the context quits the program.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// CatalogMsg delivers the starter-prompt catalog fetched at startup.
type CatalogMsg struct {
	Categories []moya.PromptCategory
}

// StreamEventMsg wraps a streaming event for delivery to the model.
type StreamEventMsg struct {
	Event moya.Event
}

// TurnDoneMsg signals that the in-flight turn has resolved.
type TurnDoneMsg struct {
	Err error
}
