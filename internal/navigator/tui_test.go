package navigator

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(NewSession(sampleResult(), &fakeManager{}), false)
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Session().Index() != 1 {
		t.Errorf("Index = %d, want 1", m.Session().Index())
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Session().Index() != 2 {
		t.Errorf("Index = %d, want 2", m.Session().Index())
	}
	if !strings.Contains(m.View(), "b.py") {
		t.Errorf("View missing current file:\n%s", m.View())
	}
}

func TestModel_ConfirmAccept(t *testing.T) {
	fm := &fakeManager{applyOK: true}
	m := NewModel(NewSession(sampleResult(), fm), true)

	m = press(m, runes("a"))
	if len(fm.calls) != 0 {
		t.Fatalf("accept applied before confirmation: %+v", fm.calls)
	}
	if !strings.Contains(m.View(), "Apply this change?") {
		t.Errorf("View missing confirmation prompt")
	}
	m = press(m, runes("y"))
	if len(fm.calls) != 1 || fm.calls[0].op != "apply" {
		t.Errorf("calls = %+v", fm.calls)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(m, runes("a"))
	m = press(m, runes("n"))
	if m.Session().Status(1) != StatusRejected {
		t.Errorf("Status = %s, want rejected", m.Session().Status(1))
	}
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(NewSession(sampleResult(), &fakeManager{}), false)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not tea.Quit")
	}
}
