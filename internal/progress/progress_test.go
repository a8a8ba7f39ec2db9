package progress

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(WithClock(c.now)), c
}

func TestRegister_Idempotent(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Register("a")
	if err := tr.Start("a"); err != nil {
		t.Fatal(err)
	}
	tr.Register("a")
	e, _ := tr.Get("a")
	if e.Status != StatusInProgress {
		t.Errorf("Status = %s, want %s", e.Status, StatusInProgress)
	}
	if n := len(tr.Entries()); n != 1 {
		t.Errorf("Entries = %d, want 1", n)
	}
}

func TestLifecycle_Timing(t *testing.T) {
	tr, clk := newTestTracker()
	if err := tr.Start("a"); err != nil {
		t.Fatal(err)
	}
	if tr.Current() != "a" {
		t.Errorf("Current = %q, want a", tr.Current())
	}
	clk.advance(2 * time.Second)
	if err := tr.Complete("a"); err != nil {
		t.Fatal(err)
	}
	if tr.Current() != "" {
		t.Errorf("Current = %q, want empty", tr.Current())
	}

	if err := tr.Start("b"); err != nil {
		t.Fatal(err)
	}
	clk.advance(500 * time.Millisecond)
	if err := tr.Fail("b", "boom"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Skip("c", "not applicable"); err != nil {
		t.Fatal(err)
	}

	s := tr.Summary()
	if s.Completed != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalDuration != 2.5 {
		t.Errorf("TotalDuration = %v, want 2.5", s.TotalDuration)
	}
	e, _ := tr.Get("b")
	if e.Message != "boom" {
		t.Errorf("Message = %q, want boom", e.Message)
	}
	if got := tr.Failed(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Failed = %v, want [b]", got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	tr, _ := newTestTracker()
	if err := tr.Complete("missing"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete unregistered: err = %v", err)
	}

	tr.Register("a")
	if err := tr.Fail("a", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fail pending: err = %v", err)
	}

	if err := tr.Start("a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start("b"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start: err = %v", err)
	}
	if err := tr.Skip("a", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Skip in progress: err = %v", err)
	}
	if err := tr.Complete("a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start("a"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("restart completed: err = %v", err)
	}
	if err := tr.Fail("a", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fail completed: err = %v", err)
	}
}

func TestSummary_Percentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		skipped   int
		pending   int
		want      float64
	}{
		{"empty", 0, 0, 0, 0},
		{"all done", 2, 2, 0, 100},
		{"half", 1, 1, 2, 50},
		{"quarter", 1, 0, 3, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker()
			n := 0
			next := func() string { n++; return string(rune('a' + n)) }
			for i := 0; i < tt.completed; i++ {
				id := next()
				_ = tr.Start(id)
				_ = tr.Complete(id)
			}
			for i := 0; i < tt.skipped; i++ {
				_ = tr.Skip(next(), "")
			}
			for i := 0; i < tt.pending; i++ {
				tr.Register(next())
			}
			s := tr.Summary()
			if s.ProgressPercentage != tt.want {
				t.Errorf("ProgressPercentage = %v, want %v", s.ProgressPercentage, tt.want)
			}
			if s.Total != tt.completed+tt.skipped+tt.pending {
				t.Errorf("Total = %d", s.Total)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusSkipped} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusInProgress} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
