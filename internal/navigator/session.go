package navigator

import (
	"fmt"

	"github.com/dshills/vaahai/internal/changes"
	"github.com/dshills/vaahai/internal/review"
)

// Symbol is one navigator input.
type Symbol int

const (
	SymNone Symbol = iota
	SymNextIssue
	SymPrevIssue
	SymNextFile
	SymPrevFile
	SymToggleBatch
	SymAccept
	SymReject
	SymUndo
	SymApplyPending
	SymQuit
)

var symbolNames = map[Symbol]string{
	SymNone:         "none",
	SymNextIssue:    "next-issue",
	SymPrevIssue:    "prev-issue",
	SymNextFile:     "next-file",
	SymPrevFile:     "prev-file",
	SymToggleBatch:  "toggle-batch",
	SymAccept:       "accept",
	SymReject:       "reject",
	SymUndo:         "undo",
	SymApplyPending: "apply-pending",
	SymQuit:         "quit",
}

func (s Symbol) String() string {
	if n, ok := symbolNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Symbol(%d)", int(s))
}

// IssueStatus is the review decision for one issue.
type IssueStatus string

const (
	StatusPending  IssueStatus = "pending"
	StatusAccepted IssueStatus = "accepted"
	StatusRejected IssueStatus = "rejected"
)

// Item is one issue with the step that produced it.
type Item struct {
	StepID string
	Issue  review.Issue
}

// Key identifies the item as step_id:file_path:line.
func (it Item) Key() string {
	return fmt.Sprintf("%s:%s:%d", it.StepID, it.Issue.FilePath, it.Issue.Line)
}

// ChangeManager is the subset of changes.Manager the navigator drives.
type ChangeManager interface {
	ApplyChange(path string, line int, original, suggested string) bool
	RejectChange(path string, line int, original, suggested string)
	AddPendingChange(path string, line int, original, suggested string)
	ApplyPendingChanges() changes.BatchResult
	UndoLastChange() bool
	Summary() changes.Summary
}

// Event reports the outcome of handling a symbol.
type Event struct {
	Message string
	Batch   *changes.BatchResult
	Quit    bool
}

// Session walks the issues of one review result and drives a
// ChangeManager. It holds no terminal state.
type Session struct {
	items    []Item
	status   map[string]IssueStatus
	accepted []string
	files    []string
	cur      int
	batch    bool
	done     bool
	cm       ChangeManager
}

// NewSession flattens res into an ordered issue list with every status
// pending.
func NewSession(res *review.AggregateResult, cm ChangeManager) *Session {
	s := &Session{status: map[string]IssueStatus{}, cm: cm}
	seenFile := map[string]bool{}
	if res != nil {
		for _, sr := range res.Results {
			for _, is := range sr.Issues {
				if is.FilePath == "" {
					is.FilePath = sr.FilePath
				}
				it := Item{StepID: sr.StepID, Issue: is}
				s.items = append(s.items, it)
				s.status[it.Key()] = StatusPending
				if !seenFile[is.FilePath] {
					seenFile[is.FilePath] = true
					s.files = append(s.files, is.FilePath)
				}
			}
		}
	}
	return s
}

// Len returns the number of issues.
func (s *Session) Len() int { return len(s.items) }

// Index returns the current issue index.
func (s *Session) Index() int { return s.cur }

// Items returns the flattened issue list.
func (s *Session) Items() []Item { return s.items }

// Files returns the distinct file paths in issue order.
func (s *Session) Files() []string { return s.files }

// Batch reports whether accepted changes are queued.
func (s *Session) Batch() bool { return s.batch }

// Done reports whether the session has quit.
func (s *Session) Done() bool { return s.done }

// Current returns the current item.
func (s *Session) Current() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[s.cur], true
}

// Status returns the status of the item at index i.
func (s *Session) Status(i int) IssueStatus {
	if i < 0 || i >= len(s.items) {
		return ""
	}
	return s.status[s.items[i].Key()]
}

// FileIndex returns the position of the current item's file in Files.
func (s *Session) FileIndex() int {
	it, ok := s.Current()
	if !ok {
		return 0
	}
	for i, f := range s.files {
		if f == it.Issue.FilePath {
			return i
		}
	}
	return 0
}

// Counts tallies item statuses.
func (s *Session) Counts() map[IssueStatus]int {
	out := map[IssueStatus]int{}
	for _, it := range s.items {
		out[s.status[it.Key()]]++
	}
	return out
}

// Summary returns the change manager summary.
func (s *Session) Summary() changes.Summary { return s.cm.Summary() }

// Handle applies one input symbol.
func (s *Session) Handle(sym Symbol) Event {
	if s.done {
		return Event{Quit: true}
	}
	switch sym {
	case SymQuit:
		s.done = true
		return Event{Quit: true, Message: "Quitting"}
	case SymToggleBatch:
		s.batch = !s.batch
		if s.batch {
			return Event{Message: "Batch mode on: accepted changes are queued"}
		}
		return Event{Message: "Batch mode off"}
	case SymUndo:
		return s.undo()
	case SymApplyPending:
		return s.applyPending()
	}

	if len(s.items) == 0 {
		return Event{Message: "No issues to review"}
	}
	switch sym {
	case SymNextIssue:
		s.cur = (s.cur + 1) % len(s.items)
	case SymPrevIssue:
		s.cur = (s.cur - 1 + len(s.items)) % len(s.items)
	case SymNextFile:
		s.jumpFile(1)
	case SymPrevFile:
		s.jumpFile(-1)
	case SymAccept:
		return s.accept()
	case SymReject:
		return s.reject()
	}
	return Event{}
}

func (s *Session) jumpFile(delta int) {
	if len(s.files) == 0 {
		return
	}
	fi := (s.FileIndex() + delta + len(s.files)) % len(s.files)
	target := s.files[fi]
	for i, it := range s.items {
		if it.Issue.FilePath == target {
			s.cur = i
			return
		}
	}
}

func (s *Session) accept() Event {
	it := s.items[s.cur]
	is := it.Issue
	if !is.HasFix() {
		return Event{Message: "No suggested fix for this issue"}
	}
	key := it.Key()
	if s.batch {
		s.cm.AddPendingChange(is.FilePath, is.Line, is.LineContent, is.SuggestedCode)
		s.markAccepted(key)
		return Event{Message: fmt.Sprintf("Queued change for %s:%d", is.FilePath, is.Line)}
	}
	ok := s.cm.ApplyChange(is.FilePath, is.Line, is.LineContent, is.SuggestedCode)
	// Marked accepted even when the change was not applied.
	s.markAccepted(key)
	if !ok {
		return Event{Message: fmt.Sprintf("Change to %s:%d was not applied", is.FilePath, is.Line)}
	}
	return Event{Message: fmt.Sprintf("Applied change to %s:%d", is.FilePath, is.Line)}
}

func (s *Session) markAccepted(key string) {
	s.status[key] = StatusAccepted
	s.accepted = append(s.accepted, key)
}

func (s *Session) reject() Event {
	it := s.items[s.cur]
	is := it.Issue
	s.cm.RejectChange(is.FilePath, is.Line, is.LineContent, is.SuggestedCode)
	s.status[it.Key()] = StatusRejected
	return Event{Message: fmt.Sprintf("Rejected change for %s:%d", is.FilePath, is.Line)}
}

func (s *Session) undo() Event {
	if !s.cm.UndoLastChange() {
		return Event{Message: "Nothing was undone"}
	}
	for len(s.accepted) > 0 {
		key := s.accepted[len(s.accepted)-1]
		s.accepted = s.accepted[:len(s.accepted)-1]
		if s.status[key] == StatusAccepted {
			s.status[key] = StatusPending
			break
		}
	}
	return Event{Message: "Last change undone"}
}

func (s *Session) applyPending() Event {
	if !s.batch {
		return Event{Message: "Batch mode is off; nothing to apply"}
	}
	res := s.cm.ApplyPendingChanges()
	return Event{
		Batch:   &res,
		Message: fmt.Sprintf("Applied %d of %d pending change(s), %d failed", res.Applied, res.Total, res.Failed),
	}
}
