package foreground

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type changedMsg struct{}

type clickedMsg struct {
	id  int
	err error
}

// Model is the bubbletea model of the interactive terminal foreground.
// Tab moves focus between buttons, enter clicks, q quits.
type Model struct {
	ctx      context.Context
	client   *Client
	term     *Terminal
	focus    int
	status   string
	quitting bool
}

// NewModel creates a TUI model bound to client
func NewModel(ctx context.Context, client *Client) Model {
	return Model{ctx: ctx, client: client, term: NewTerminal(), status: "waiting for worker"}
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.client.Changed():
			return changedMsg{}
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m Model) click(id int) tea.Cmd {
	return func() tea.Msg {
		return clickedMsg{id: id, err: m.client.Click(m.ctx, id)}
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) buttons() []int {
	p, ok := m.client.Latest()
	if !ok {
		return nil
	}
	return Buttons(p.Elements)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		if m.client.Linked() {
			m.status = "linked"
		}
		if n := len(m.buttons()); n > 0 && m.focus >= n {
			m.focus = n - 1
		}
		return m, m.waitForChange()

	case clickedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("click %d failed: %v", msg.id, msg.err)
		} else {
			m.status = fmt.Sprintf("clicked %d", msg.id)
		}
		return m, nil

	case tea.KeyMsg:
		ids := m.buttons()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "right", "l", "j":
			if len(ids) > 0 {
				m.focus = (m.focus + 1) % len(ids)
			}
		case "shift+tab", "left", "h", "k":
			if len(ids) > 0 {
				m.focus = (m.focus - 1 + len(ids)) % len(ids)
			}
		case "enter", " ":
			if m.focus < len(ids) {
				return m, m.click(ids[m.focus])
			}
		}
	}
	return m, nil
}

// Focused returns the id of the focused button, or NoFocus
func (m Model) Focused() int {
	ids := m.buttons()
	if m.focus < len(ids) {
		return ids[m.focus]
	}
	return NoFocus
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	status := lipgloss.NewStyle().Foreground(colorOverlay).Render(m.status)
	help := lipgloss.NewStyle().Foreground(colorOverlay).Render("tab: next  enter: click  q: quit")

	body := ""
	if p, ok := m.client.Latest(); ok {
		body = m.term.Render(p, m.Focused())
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, "", body, "", help)
}

// RunTUI runs the interactive foreground until the user quits or ctx ends
func RunTUI(ctx context.Context, client *Client) error {
	_, err := tea.NewProgram(NewModel(ctx, client), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
