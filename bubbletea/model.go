package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/montycloud/moya"
	"github.com/montycloud/moya/session"
)

var _ tea.Model = Model{}

// view identifies which screen the model renders.
type view int

const (
	viewPicker view = iota
	viewChat
)

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	session Session
	theme   moya.Theme
	styles  Styles

	view    view
	catalog []moya.PromptCategory
	// prompts is the catalog flattened for number selection in the
	// picker. prompts[i] is selected by typing i+1.
	prompts []string

	blocks []MessageBlock
	// active is the assistant block receiving deltas for the in-flight
	// turn. Nil outside a turn and before the first delta arrives.
	active *AssistantBlock

	running bool
	cancel  context.CancelFunc
	eventCh chan moya.Event
	doneCh  chan error
	err     error
	ready   bool
}

// New creates a new TUI Model over the given session.
func New(sess Session, theme moya.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:   ti,
		session: sess,
		theme:   theme,
		styles:  NewStyles(theme),
		view:    viewPicker,
	}
}

// Running returns whether a turn is currently in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last turn error, if any.
func (m Model) Err() error { return m.err }

// SetRunning is a test helper that puts the model in a running state.
func SetRunning(m Model) (Model, tea.Cmd) {
	m.running = true
	return m, nil
}

// SetRunningWithCancel is a test helper that puts the model in a running state
// with a cancel function.
func SetRunningWithCancel(m Model, cancel func()) (Model, tea.Cmd) {
	m.running = true
	m.cancel = cancel
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, fetchCatalog(m.session))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case CatalogMsg:
		m.catalog = msg.Categories
		m.prompts = flattenPrompts(msg.Categories)
		if len(m.prompts) == 0 {
			m.view = viewChat
		}
		if m.ready {
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		m.running = false
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		m.active = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m = m.syncBlocks()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.syncBlocks()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		if m.view == viewPicker {
			if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(m.prompts) {
				text = m.prompts[n-1]
			}
		}
		return m.submitInput(text)

	case tea.KeyCtrlR:
		if !m.running && m.session.Connection().Status == moya.ConnError {
			m.session.Retry()
			m.err = nil
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.KeyCtrlN:
		if !m.running {
			m.session.Reset()
			m.err = nil
			m.blocks = nil
			m.active = nil
			if len(m.prompts) > 0 {
				m.view = viewPicker
			}
			m.Input.SetValue("")
			m.Viewport.SetContent(m.renderContent())
			m.Viewport.GotoTop()
		}
		return m, nil
	}

	// When idle, pass keys to both the input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.view = viewChat
	m.active = nil

	m.blocks = append(m.blocks, NewUserBlock(text, moya.StatusSending, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan moya.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startTurn(ctx, m.session, text, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// processEvent routes a streaming event to the active assistant block.
func (m Model) processEvent(evt moya.Event) Model {
	switch e := evt.(type) {
	case moya.EventDelta:
		if m.active == nil {
			m.active = NewAssistantBlock(m.theme, m.styles)
			m.blocks = append(m.blocks, m.active)
		}
		m.active.Append(e.Text)
	}
	return m
}

// syncBlocks rebuilds the block list from the session transcript. Used
// after a turn resolves so statuses and final content match the store,
// and on startup to render a preexisting transcript.
func (m Model) syncBlocks() Model {
	msgs := m.session.Messages()
	blocks := make([]MessageBlock, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case moya.RoleUser:
			blocks = append(blocks, NewUserBlock(msg.Content, msg.Status, m.styles))
		case moya.RoleAssistant:
			b := NewAssistantBlock(m.theme, m.styles)
			b.Append(msg.Content)
			b.SetStatus(msg.Status)
			blocks = append(blocks, b)
		}
	}
	m.blocks = blocks
	m.active = nil
	return m
}

func (m Model) renderContent() string {
	if m.view == viewPicker {
		return m.renderPicker()
	}
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// renderPicker lists starter prompts grouped by category. Each prompt
// gets a number the user can type instead of the full text.
func (m Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("Starter prompts"))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Type a number to use a prompt, or type your own message."))
	b.WriteString("\n")

	width := m.Viewport.Width
	n := 0
	for _, cat := range m.catalog {
		b.WriteString("\n")
		b.WriteString(m.styles.Accent.Render(cat.Title))
		b.WriteString("\n")
		if cat.Description != "" {
			b.WriteString(m.styles.Muted.Render(Truncate(cat.Description, width)))
			b.WriteString("\n")
		}
		for _, p := range cat.Prompts {
			n++
			line := fmt.Sprintf("  %d. %s", n, p)
			b.WriteString(Truncate(line, width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) statusLine() string {
	if conn := m.session.Connection(); conn.Status == moya.ConnError {
		detail := conn.Detail
		if detail == "" {
			detail = "connection error"
		}
		return m.styles.Error.Render(Truncate(detail+" (Ctrl+R to retry)", m.Viewport.Width))
	}
	if m.err != nil {
		return m.styles.Error.Render(Truncate(fmt.Sprintf("Error: %v", m.err), m.Viewport.Width))
	}
	if m.running {
		return m.styles.Muted.Render("Thinking...")
	}
	return m.styles.Muted.Render("Enter to send, Ctrl+N for new chat, Ctrl+C to quit")
}

func flattenPrompts(categories []moya.PromptCategory) []string {
	var prompts []string
	for _, cat := range categories {
		prompts = append(prompts, cat.Prompts...)
	}
	return prompts
}

// fetchCatalog loads the starter-prompt catalog in the background.
func fetchCatalog(sess Session) tea.Cmd {
	return func() tea.Msg {
		return CatalogMsg{Categories: sess.StarterPrompts(context.Background())}
	}
}

// startTurn runs a send in a goroutine, forwarding stream events to
// eventCh. The channel is closed when the turn resolves, then the
// error is published on doneCh.
func startTurn(ctx context.Context, sess Session, text string, eventCh chan<- moya.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := sess.Send(ctx, text, session.WithEventHandler(func(e moya.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		}))
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it reads the error from doneCh and returns TurnDoneMsg.
func listenForEvent(ch <-chan moya.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			err := <-doneCh
			return TurnDoneMsg{Err: err}
		}
		return StreamEventMsg{Event: evt}
	}
}
