package progress

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dshills/vaahai/internal/review"
)

// Status is the lifecycle state of a tracked step.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusSkipped    Status = "SKIPPED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid step transition")

// Entry is the tracked state of one step.
type Entry struct {
	ID       string
	Status   Status
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Message  string
}

// Tracker records per-step status and timing for one sequential run.
// It is not safe for concurrent use.
type Tracker struct {
	entries map[string]*Entry
	order   []string
	current string
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New returns an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{entries: make(map[string]*Entry), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds id as PENDING. Registering an existing id is a no-op.
func (t *Tracker) Register(id string) {
	if _, ok := t.entries[id]; ok {
		return
	}
	t.entries[id] = &Entry{ID: id, Status: StatusPending}
	t.order = append(t.order, id)
}

// Start moves id to IN_PROGRESS, registering it first if needed.
func (t *Tracker) Start(id string) error {
	t.Register(id)
	e := t.entries[id]
	if e.Status != StatusPending {
		return fmt.Errorf("start %q from %s: %w", id, e.Status, ErrInvalidTransition)
	}
	if t.current != "" {
		return fmt.Errorf("start %q while %q is in progress: %w", id, t.current, ErrInvalidTransition)
	}
	e.Status = StatusInProgress
	e.Start = t.now()
	t.current = id
	return nil
}

// Complete marks an in-progress step as COMPLETED.
func (t *Tracker) Complete(id string) error {
	return t.finish(id, StatusCompleted, "")
}

// Fail marks an in-progress step as FAILED with a reason.
func (t *Tracker) Fail(id, reason string) error {
	return t.finish(id, StatusFailed, reason)
}

func (t *Tracker) finish(id string, to Status, msg string) error {
	e, ok := t.entries[id]
	if !ok || e.Status != StatusInProgress {
		from := Status("UNREGISTERED")
		if ok {
			from = e.Status
		}
		return fmt.Errorf("%s %q from %s: %w", to, id, from, ErrInvalidTransition)
	}
	e.Status = to
	e.End = t.now()
	e.Duration = e.End.Sub(e.Start)
	e.Message = msg
	if t.current == id {
		t.current = ""
	}
	return nil
}

// Skip marks a pending step as SKIPPED without timing it.
func (t *Tracker) Skip(id, reason string) error {
	t.Register(id)
	e := t.entries[id]
	if e.Status != StatusPending {
		return fmt.Errorf("skip %q from %s: %w", id, e.Status, ErrInvalidTransition)
	}
	e.Status = StatusSkipped
	e.Message = reason
	return nil
}

// Current returns the id of the step in progress, or "".
func (t *Tracker) Current() string { return t.current }

// Get returns a copy of the entry for id.
func (t *Tracker) Get(id string) (Entry, bool) {
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns all entries in registration order.
func (t *Tracker) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.entries[id])
	}
	return out
}

// Summary counts steps per status. The percentage counts skipped steps as
// done; the duration sums only completed and failed steps.
func (t *Tracker) Summary() review.ProgressSummary {
	s := review.ProgressSummary{Total: len(t.entries)}
	var dur time.Duration
	for _, e := range t.entries {
		switch e.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
			dur += e.Duration
		case StatusFailed:
			s.Failed++
			dur += e.Duration
		case StatusSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.ProgressPercentage = float64(s.Completed+s.Skipped) / float64(s.Total) * 100
	}
	s.TotalDuration = dur.Seconds()
	return s
}

// Failed returns the ids of failed steps, sorted.
func (t *Tracker) Failed() []string {
	var ids []string
	for id, e := range t.entries {
		if e.Status == StatusFailed {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
