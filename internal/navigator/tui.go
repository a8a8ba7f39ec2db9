package navigator

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	NextFile key.Binding
	PrevFile key.Binding
	Accept   key.Binding
	Reject   key.Binding
	Batch    key.Binding
	Undo     key.Binding
	Apply    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next issue")),
		Prev:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev issue")),
		NextFile: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next file")),
		PrevFile: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev file")),
		Accept:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
		Reject:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
		Batch:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "batch mode")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Apply:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "apply pending")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Accept, k.Reject, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.NextFile, k.PrevFile},
		{k.Accept, k.Reject, k.Undo},
		{k.Batch, k.Apply, k.Help, k.Quit},
	}
}

func (k keyMap) symbol(msg tea.KeyMsg) Symbol {
	switch {
	case key.Matches(msg, k.Next):
		return SymNextIssue
	case key.Matches(msg, k.Prev):
		return SymPrevIssue
	case key.Matches(msg, k.NextFile):
		return SymNextFile
	case key.Matches(msg, k.PrevFile):
		return SymPrevFile
	case key.Matches(msg, k.Accept):
		return SymAccept
	case key.Matches(msg, k.Reject):
		return SymReject
	case key.Matches(msg, k.Batch):
		return SymToggleBatch
	case key.Matches(msg, k.Undo):
		return SymUndo
	case key.Matches(msg, k.Apply):
		return SymApplyPending
	case key.Matches(msg, k.Quit):
		return SymQuit
	}
	return SymNone
}

var confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

// Model is the bubbletea front end for a Session. When confirm is set,
// an immediate-mode accept asks y/n inside the UI before the change
// manager is called; the manager itself should then not prompt.
type Model struct {
	session    *Session
	keys       keyMap
	help       help.Model
	confirm    bool
	confirming bool
	status     string
	width      int
}

// NewModel returns a Model over s.
func NewModel(s *Session, confirm bool) Model {
	return Model{
		session: s,
		keys:    defaultKeyMap(),
		help:    help.New(),
		confirm: confirm,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		sym := m.keys.symbol(msg)
		if sym == SymNone {
			return m, nil
		}
		if sym == SymAccept && m.confirm && !m.session.Batch() {
			if it, ok := m.session.Current(); ok && it.Issue.HasFix() {
				m.confirming = true
				m.status = ""
				return m, nil
			}
		}
		return m.handle(sym)
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirming = false
		return m.handle(SymAccept)
	case "n", "N", "esc":
		m.confirming = false
		return m.handle(SymReject)
	case "ctrl+c":
		return m.handle(SymQuit)
	}
	return m, nil
}

func (m Model) handle(sym Symbol) (tea.Model, tea.Cmd) {
	ev := m.session.Handle(sym)
	m.status = ev.Message
	if ev.Quit {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	footer := m.help.View(m.keys)
	if m.confirming {
		footer = confirmStyle.Render("Apply this change? [y/N]")
	}
	parts := []string{Header(m.session), IssueView(m.session)}
	if m.status != "" {
		parts = append(parts, dimStyle.Render(m.status))
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Session returns the session driven by the model.
func (m Model) Session() *Session { return m.session }

// Run starts the interactive navigator on the terminal and blocks until
// the user quits.
func Run(s *Session, confirm bool, opts ...tea.ProgramOption) error {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	program := tea.NewProgram(NewModel(s, confirm), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run navigator: %w", err)
	}
	return nil
}
