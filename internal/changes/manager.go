package changes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/vaahai/internal/logging"
)

var (
	// ErrNotFound is wrapped when a file or backup is missing.
	ErrNotFound = errors.New("not found")
	// ErrMismatch is wrapped when the original text does not match the file.
	ErrMismatch = errors.New("original code does not match file content")
)

// Config holds the file_modification settings.
type Config struct {
	BackupDir        string
	MaxBackupAgeDays int
	ConfirmChanges   bool
	DryRun           bool
	// CreateGitCommits is accepted for compatibility and currently unused.
	CreateGitCommits bool
}

// DefaultConfig returns the default file_modification settings.
func DefaultConfig() Config {
	return Config{
		BackupDir:        "~/.vaahai/backups",
		MaxBackupAgeDays: 30,
		ConfirmChanges:   true,
	}
}

// ChangeRecord is one applied or rejected change.
type ChangeRecord struct {
	FilePath      string    `json:"file_path"`
	LineNumber    int       `json:"line_number"`
	OriginalCode  string    `json:"original_code"`
	SuggestedCode string    `json:"suggested_code"`
	Timestamp     time.Time `json:"timestamp"`
	BackupPath    string    `json:"backup_path,omitempty"`
	DryRun        bool      `json:"dry_run"`
}

// Summary is a read-only view of the manager's bookkeeping.
type Summary struct {
	Applied         int            `json:"applied"`
	Rejected        int            `json:"rejected"`
	Pending         int            `json:"pending"`
	AppliedChanges  []ChangeRecord `json:"changes_applied"`
	RejectedChanges []ChangeRecord `json:"changes_rejected"`
	PendingChanges  []ChangeRecord `json:"pending_changes"`
}

// BatchDetail is the outcome of one pending change.
type BatchDetail struct {
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	Success    bool   `json:"success"`
}

// BatchResult summarizes ApplyPendingChanges.
type BatchResult struct {
	Total   int           `json:"total"`
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Details []BatchDetail `json:"details"`
}

// Manager applies, rejects and undoes changes to files, backing up every
// file before it is modified. It is not safe for concurrent use, and two
// managers sharing a backup directory overwrite each other's history.
type Manager struct {
	cfg       Config
	confirmer Confirmer
	log       *log.Logger
	now       func() time.Time
	writeFile func(name string, data []byte, perm os.FileMode) error

	history  BackupHistory
	applied  []ChangeRecord
	rejected []ChangeRecord
	pending  []ChangeRecord
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfirmer sets the confirmation strategy used when ConfirmChanges is
// on. The default prompts on stdin and stdout.
func WithConfirmer(c Confirmer) Option {
	return func(m *Manager) { m.confirmer = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithWriteFile replaces the function used to write modified files.
func WithWriteFile(fn func(name string, data []byte, perm os.FileMode) error) Option {
	return func(m *Manager) { m.writeFile = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates the backup directory and loads the backup history.
func New(cfg Config, opts ...Option) (*Manager, error) {
	def := DefaultConfig()
	if cfg.BackupDir == "" {
		cfg.BackupDir = def.BackupDir
	}
	if cfg.MaxBackupAgeDays <= 0 {
		cfg.MaxBackupAgeDays = def.MaxBackupAgeDays
	}
	dir, err := expandHome(cfg.BackupDir)
	if err != nil {
		return nil, err
	}
	cfg.BackupDir = dir

	m := &Manager{
		cfg:       cfg,
		confirmer: NewPromptConfirmer(os.Stdin, os.Stdout),
		log:       logging.Discard(),
		now:       time.Now,
		writeFile: os.WriteFile,
		history:   BackupHistory{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	if err := m.loadHistory(); err != nil {
		m.log.Warn("ignoring unreadable backup history", "err", err)
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// ApplyChange replaces the lines starting at line that match original with
// suggested. In dry-run mode it only records the change. When confirmation
// is on, a declined change is recorded as rejected. It reports whether the
// change was applied.
func (m *Manager) ApplyChange(path string, line int, original, suggested string) bool {
	rec := ChangeRecord{
		FilePath:      path,
		LineNumber:    line,
		OriginalCode:  original,
		SuggestedCode: suggested,
		Timestamp:     m.now(),
	}
	if m.cfg.DryRun {
		rec.DryRun = true
		m.applied = append(m.applied, rec)
		m.log.Info("dry run: change recorded", "file", path, "line", line)
		return true
	}
	if m.cfg.ConfirmChanges {
		ok := m.confirmer.Confirm(Change{FilePath: path, LineNumber: line, OriginalCode: original, SuggestedCode: suggested})
		if !ok {
			m.rejected = append(m.rejected, rec)
			m.log.Info("change declined", "file", path, "line", line)
			return false
		}
	}

	backup, err := m.BackupFile(path)
	if err != nil {
		m.log.Error("cannot apply change", "file", path, "line", line, "err", err)
		return false
	}
	rec.BackupPath = backup

	if err := m.rewrite(path, line, original, suggested); err != nil {
		if errors.Is(err, ErrMismatch) {
			m.log.Error("change not applied", "file", path, "line", line, "err", err)
			return false
		}
		m.log.Error("write failed, restoring backup", "file", path, "err", err)
		if rerr := restore(path, backup); rerr != nil {
			m.log.Error("restore after failed write also failed", "file", path, "backup", backup, "err", rerr)
		}
		return false
	}
	m.applied = append(m.applied, rec)
	m.log.Info("change applied", "file", path, "line", line)
	return true
}

// rewrite validates original against the file and splices suggested in.
func (m *Manager) rewrite(path string, line int, original, suggested string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := splitKeepEnds(string(data))
	n := lineCount(original)
	start := line - 1
	if start < 0 || start+n > len(lines) {
		return fmt.Errorf("%w: line range %d-%d outside file of %d lines", ErrMismatch, line, line+n-1, len(lines))
	}
	current := strings.Join(lines[start:start+n], "")
	if strings.TrimSpace(current) != strings.TrimSpace(original) {
		return fmt.Errorf("%w at line %d", ErrMismatch, line)
	}

	eol := lineEnding(lines[start])
	if eol == "" {
		eol = "\n"
	}
	lastEOL := lineEnding(lines[start+n-1])

	var b strings.Builder
	for _, l := range lines[:start] {
		b.WriteString(l)
	}
	if body := strings.TrimRight(suggested, "\r\n"); body != "" || suggested != "" {
		repl := strings.Split(body, "\n")
		for i, l := range repl {
			b.WriteString(strings.TrimSuffix(l, "\r"))
			if i < len(repl)-1 {
				b.WriteString(eol)
			}
		}
		b.WriteString(lastEOL)
	}
	for _, l := range lines[start+n:] {
		b.WriteString(l)
	}
	return m.writeFile(path, []byte(b.String()), info.Mode().Perm())
}

// RejectChange records a declined change. It never touches the filesystem.
func (m *Manager) RejectChange(path string, line int, original, suggested string) {
	m.rejected = append(m.rejected, ChangeRecord{
		FilePath:      path,
		LineNumber:    line,
		OriginalCode:  original,
		SuggestedCode: suggested,
		Timestamp:     m.now(),
	})
	m.log.Debug("change rejected", "file", path, "line", line)
}

// AddPendingChange queues a change for ApplyPendingChanges.
func (m *Manager) AddPendingChange(path string, line int, original, suggested string) {
	m.pending = append(m.pending, ChangeRecord{
		FilePath:      path,
		LineNumber:    line,
		OriginalCode:  original,
		SuggestedCode: suggested,
		Timestamp:     m.now(),
	})
}

// ApplyPendingChanges applies every queued change, file by file and from
// the highest line number down so earlier edits do not shift later ones.
// The queue is always drained; failed changes are dropped.
func (m *Manager) ApplyPendingChanges() BatchResult {
	queue := m.pending
	m.pending = nil

	var files []string
	byFile := map[string][]ChangeRecord{}
	for _, c := range queue {
		if _, ok := byFile[c.FilePath]; !ok {
			files = append(files, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	res := BatchResult{Total: len(queue), Details: []BatchDetail{}}
	for _, f := range files {
		group := byFile[f]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].LineNumber > group[j].LineNumber
		})
		for _, c := range group {
			ok := m.ApplyChange(c.FilePath, c.LineNumber, c.OriginalCode, c.SuggestedCode)
			if ok {
				res.Applied++
			} else {
				res.Failed++
			}
			res.Details = append(res.Details, BatchDetail{FilePath: c.FilePath, LineNumber: c.LineNumber, Success: ok})
		}
	}
	return res
}

// UndoLastChange pops the most recent applied change and restores its
// backup. The record is discarded even when the restore fails. Dry-run
// records carry no backup, so undoing one pops it and reports false.
func (m *Manager) UndoLastChange() bool {
	if len(m.applied) == 0 {
		m.log.Warn("nothing to undo")
		return false
	}
	rec := m.applied[len(m.applied)-1]
	m.applied = m.applied[:len(m.applied)-1]

	if rec.DryRun {
		m.log.Info("dry-run change has nothing to undo", "file", rec.FilePath, "line", rec.LineNumber)
		return false
	}
	if rec.BackupPath == "" || !fileExists(rec.BackupPath) {
		m.log.Error("backup missing, cannot undo", "file", rec.FilePath, "backup", rec.BackupPath)
		return false
	}
	if err := restore(rec.FilePath, rec.BackupPath); err != nil {
		m.log.Error("undo failed", "file", rec.FilePath, "err", err)
		return false
	}
	m.log.Info("change undone", "file", rec.FilePath, "line", rec.LineNumber)
	return true
}

// Summary returns counts and copies of the applied, rejected and pending
// lists.
func (m *Manager) Summary() Summary {
	return Summary{
		Applied:         len(m.applied),
		Rejected:        len(m.rejected),
		Pending:         len(m.pending),
		AppliedChanges:  append([]ChangeRecord{}, m.applied...),
		RejectedChanges: append([]ChangeRecord{}, m.rejected...),
		PendingChanges:  append([]ChangeRecord{}, m.pending...),
	}
}

// splitKeepEnds splits s into lines that keep their terminators.
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

func lineEnding(l string) string {
	switch {
	case strings.HasSuffix(l, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(l, "\n"):
		return "\n"
	default:
		return ""
	}
}

// lineCount is the number of lines text spans, ignoring one trailing newline.
func lineCount(text string) int {
	text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
	return strings.Count(text, "\n") + 1
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
