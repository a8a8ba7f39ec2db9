package runner

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dshills/vaahai/internal/cache"
	"github.com/dshills/vaahai/internal/findings"
	"github.com/dshills/vaahai/internal/logging"
	"github.com/dshills/vaahai/internal/progress"
	"github.com/dshills/vaahai/internal/redact"
	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/stats"
	"github.com/dshills/vaahai/internal/steps"
)

// Callback states reported by RunOnDirectory.
const (
	FileProcessing = "processing"
	FileCompleted  = "completed"
	FileFailed     = "failed"
)

// Options configures a Runner. The zero value is usable.
type Options struct {
	Logger      *log.Logger
	Cache       *cache.Cache
	Rules       *review.Rules
	MaxFindings int
	// SkipPaths are glob patterns for files that are never read.
	SkipPaths []string
	// Configs are the per-step settings the steps were built with. They
	// are part of the cache key.
	Configs map[string]steps.Config
	Version string
	Clock     func() time.Time
}

// DirOptions controls RunOnDirectory.
type DirOptions struct {
	// Extensions limits the walk to these file extensions (".py" or "py").
	Extensions  []string
	Recursive   bool
	ExcludeDirs []string
	Callback    func(path, state string)
}

// Runner executes an ordered list of steps.
type Runner struct {
	steps       []steps.Step
	opts        Options
	log         *log.Logger
	now         func() time.Time
	fingerprint string
}

// New returns a Runner over an explicit step list.
func New(list []steps.Step, opts Options) *Runner {
	r := &Runner{steps: list, opts: opts, log: opts.Logger, now: opts.Clock}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.opts.MaxFindings <= 0 {
		r.opts.MaxFindings = findings.DefaultMaxFindings
	}
	r.fingerprint = r.cacheFingerprint()
	return r
}

// cacheFingerprint encodes the settings that change step output for the
// same content. encoding/json sorts map keys, so equal settings encode
// identically.
func (r *Runner) cacheFingerprint() string {
	configs := make(map[string]steps.Config, len(r.steps))
	for _, s := range r.steps {
		id := s.Info().ID
		if cfg := r.opts.Configs[id]; len(cfg) > 0 {
			configs[id] = cfg
		}
	}
	fp := struct {
		Version string                  `json:"version"`
		Configs map[string]steps.Config `json:"configs"`
		Rules   *review.Rules           `json:"rules"`
	}{r.opts.Version, configs, r.opts.Rules}
	data, err := json.Marshal(fp)
	if err != nil {
		r.log.Warn("cannot fingerprint step settings", "err", err)
		return fmt.Sprintf("%v", fp)
	}
	return string(data)
}

// NewFromRegistry resolves the steps matching c once, using configs for
// per-step settings. Steps that cannot be created are logged and skipped.
func NewFromRegistry(reg *steps.Registry, c steps.Criteria, configs map[string]steps.Config, opts Options) *Runner {
	return NewFromCriteria(reg, []steps.Criteria{c}, configs, opts)
}

// NewFromCriteria is NewFromRegistry over the union of several criteria.
// Each matching step is created once, in id order.
func NewFromCriteria(reg *steps.Registry, cs []steps.Criteria, configs map[string]steps.Config, opts Options) *Runner {
	if opts.Configs == nil {
		opts.Configs = configs
	}
	matched := make(map[string]steps.Definition)
	for _, c := range cs {
		for _, def := range reg.Filter(c) {
			matched[def.Info.ID] = def
		}
	}
	var list []steps.Step
	for _, id := range reg.IDs() {
		def, ok := matched[id]
		if !ok || !opts.Rules.AllowsStep(id, def.Info.Category) {
			continue
		}
		if s := reg.CreateInstance(id, configs[id]); s != nil {
			list = append(list, s)
		}
	}
	return New(list, opts)
}

// Steps returns the resolved step list.
func (r *Runner) Steps() []steps.Step { return r.steps }

// StepIDs returns the ids of the resolved steps in run order.
func (r *Runner) StepIDs() []string {
	ids := make([]string, len(r.steps))
	for i, s := range r.steps {
		ids[i] = s.Info().ID
	}
	return ids
}

// RunOnContent runs every step over content. Whitespace-only content yields
// an error result without running any step.
func (r *Runner) RunOnContent(content, filePath string) *review.AggregateResult {
	if strings.TrimSpace(content) == "" {
		res := review.ErrorResult(steps.NoContentMessage)
		res.Target = filePath
		return r.stamp(res)
	}
	col := stats.New()
	tr := progress.New(progress.WithClock(r.now))
	if filePath != "" {
		col.AddFile(filePath)
	}
	results := r.execute(content, filePath, tr)
	for _, sr := range results {
		col.AddStepResult(sr)
	}
	return r.finish(results, col, tr, filePath, nil)
}

// RunOnFile reads path and runs every step over its content.
func (r *Runner) RunOnFile(path string) *review.AggregateResult {
	data, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("Error reading file %s: %v", path, err)
		if os.IsNotExist(err) {
			msg = fmt.Sprintf("File not found: %s", path)
		}
		res := review.ErrorResult(msg)
		res.Target = path
		return r.stamp(res)
	}
	return r.RunOnContent(string(data), path)
}

// RunOnDirectory walks dir sequentially and runs every step over each
// matching file. A failure in one file never stops the walk.
func (r *Runner) RunOnDirectory(dir string, o DirOptions) *review.AggregateResult {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		res := review.ErrorResult(fmt.Sprintf("Directory not found: %s", dir))
		res.Target = dir
		return r.stamp(res)
	}
	exts := normalizeExts(o.Extensions)

	var paths []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			r.log.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !o.Recursive || isHidden(d.Name()) || contains(o.ExcludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !matchesExt(path, exts) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		res := review.ErrorResult(fmt.Sprintf("Error walking %s: %v", dir, walkErr))
		res.Target = dir
		return r.stamp(res)
	}
	return r.RunOnFiles(dir, paths, nil, o.Callback)
}

// ReadFunc loads the content of one file.
type ReadFunc func(path string) (string, error)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

// RunOnFiles runs every step over each path in order, loading content
// with read (os.ReadFile when nil). target labels the result. Paths
// matching SkipPaths are never read.
func (r *Runner) RunOnFiles(target string, paths []string, read ReadFunc, notify func(path, state string)) *review.AggregateResult {
	if read == nil {
		read = readFile
	}
	if notify == nil {
		notify = func(string, string) {}
	}

	col := stats.New()
	tr := progress.New(progress.WithClock(r.now))
	counts := map[string]int{}
	var results []review.StepResult

	for _, path := range paths {
		if redact.ShouldRedactPath(path, r.opts.SkipPaths) {
			r.log.Debug("skipping path by policy", "path", path)
			continue
		}
		notify(path, FileProcessing)
		content, err := read(path)
		if err != nil {
			_ = tr.Start(path)
			_ = tr.Fail(path, err.Error())
			r.log.Warn("cannot read file", "path", path, "err", err)
			notify(path, FileFailed)
			continue
		}
		col.AddFile(path)
		if strings.TrimSpace(content) == "" {
			_ = tr.Skip(path, "empty file")
			notify(path, FileCompleted)
			continue
		}
		_ = tr.Start(path)
		fileResults := r.execute(content, path, nil)
		n := 0
		for _, sr := range fileResults {
			n += col.AddStepResult(sr)
		}
		counts[path] = n
		results = append(results, fileResults...)
		_ = tr.Complete(path)
		notify(path, FileCompleted)
	}
	return r.finish(results, col, tr, target, counts)
}

// execute runs the steps in order. When tr is non-nil each step is tracked.
func (r *Runner) execute(content, filePath string, tr *progress.Tracker) []review.StepResult {
	ids := r.StepIDs()
	key := cache.BuildKey(ids, r.fingerprint, filePath, content)
	if r.opts.Cache != nil {
		if cached, ok := r.opts.Cache.Get(key); ok && len(cached) == len(r.steps) {
			r.log.Debug("cache hit", "path", filePath)
			if tr != nil {
				for _, id := range ids {
					_ = tr.Start(id)
					_ = tr.Complete(id)
				}
			}
			return cached
		}
	}

	in := steps.Input{Content: content, FilePath: filePath}
	results := make([]review.StepResult, 0, len(r.steps))
	allOK := true
	for _, s := range r.steps {
		id := s.Info().ID
		if tr != nil {
			_ = tr.Start(id)
		}
		sr := r.runStep(s, in)
		if sr.Status == review.StatusError {
			allOK = false
			r.log.Warn("step failed", "step", id, "path", filePath, "msg", sr.Message)
			if tr != nil {
				_ = tr.Fail(id, sr.Message)
			}
		} else if tr != nil {
			_ = tr.Complete(id)
		}
		results = append(results, sr)
	}

	if r.opts.Cache != nil && allOK {
		if err := r.opts.Cache.Put(key, results); err != nil {
			r.log.Warn("cache write failed", "err", err)
		}
	}
	return results
}

// runStep executes one step, converting errors and panics into an error
// result with no issues.
func (r *Runner) runStep(s steps.Step, in steps.Input) (res review.StepResult) {
	info := s.Info()
	start := r.now()
	res = review.StepResult{
		StepID:   info.ID,
		StepName: info.Name,
		Category: info.Category,
		Severity: info.Severity,
		FilePath: in.FilePath,
	}
	defer func() {
		if p := recover(); p != nil {
			res.Status = review.StatusError
			res.Message = fmt.Sprintf("Error executing step: panic: %v", p)
			res.Issues = []review.Issue{}
		}
		res.Duration = r.now().Sub(start).Seconds()
	}()

	out, err := s.Execute(in)
	if err != nil {
		res.Status = review.StatusError
		res.Message = fmt.Sprintf("Error executing step: %v", err)
		res.Issues = []review.Issue{}
		return res
	}
	res.Status = out.Status
	if res.Status == "" {
		res.Status = review.StatusSuccess
	}
	res.Message = out.Message
	res.Issues = out.Issues
	if res.Issues == nil {
		res.Issues = []review.Issue{}
	}
	for i := range res.Issues {
		if res.Issues[i].Severity == "" {
			res.Issues[i].Severity = info.Severity
		}
		if res.Issues[i].FilePath == "" {
			res.Issues[i].FilePath = in.FilePath
		}
	}
	res.Issues = review.ApplySeverityOverrides(res.Issues, info.Category, r.opts.Rules)
	return res
}

func (r *Runner) finish(results []review.StepResult, col *stats.Collector, tr *progress.Tracker, target string, counts map[string]int) *review.AggregateResult {
	rep := findings.New(col)
	failed := 0
	for _, sr := range results {
		if sr.Status == review.StatusError {
			failed++
		}
	}
	total := col.TotalIssues()
	msg := fmt.Sprintf("Review completed: %d issue(s) found", total)
	if failed > 0 {
		msg += fmt.Sprintf(" (%d step run(s) failed)", failed)
	}
	if results == nil {
		results = []review.StepResult{}
	}
	return r.stamp(&review.AggregateResult{
		Target:          target,
		Status:          review.StatusSuccess,
		Message:         msg,
		Results:         results,
		TotalIssues:     total,
		Progress:        tr.Summary(),
		Statistics:      col.Summary(),
		KeyFindings:     rep.GenerateFindings(r.opts.MaxFindings),
		Recommendations: rep.Recommendations(),
		FileIssueCounts: counts,
	})
}

func (r *Runner) stamp(res *review.AggregateResult) *review.AggregateResult {
	res.Tool = "vaahai"
	res.Version = r.opts.Version
	res.RunID = uuid.NewString()
	return res
}

func normalizeExts(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = true
	}
	return out
}

func matchesExt(path string, exts map[string]bool) bool {
	if len(exts) == 0 {
		return true
	}
	return exts[strings.ToLower(filepath.Ext(path))]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
