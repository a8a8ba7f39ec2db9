package stats

import (
	"fmt"
	"sort"

	"github.com/dshills/vaahai/internal/review"
)

// mostCommonLimit caps Summary.MostCommonIssues.
const mostCommonLimit = 10

type fileCounts struct {
	total      int
	bySeverity map[review.Severity]int
}

type stepCounts struct {
	category   review.Category
	total      int
	bySeverity map[review.Severity]int
}

type messageCounts struct {
	count    int
	severity review.Severity
	category review.Category
	order    int
}

// Collector deduplicates issues and aggregates them by file, severity,
// category and step. The zero value is not usable; call New.
type Collector struct {
	seen       map[string]struct{}
	files      map[string]*fileCounts
	fileOrder  []string
	withIssues int
	total      int
	severity   map[review.Severity]int
	category   map[review.Category]int
	steps      map[string]*stepCounts
	stepOrder  []string
	messages   map[string]*messageCounts
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{
		seen:     make(map[string]struct{}),
		files:    make(map[string]*fileCounts),
		severity: make(map[review.Severity]int),
		category: make(map[review.Category]int),
		steps:    make(map[string]*stepCounts),
		messages: make(map[string]*messageCounts),
	}
}

// DedupKey returns the identity of an issue within one collector.
func DedupKey(stepID string, is review.Issue) string {
	return fmt.Sprintf("%s|%d|%d|%s", is.FilePath, is.Line, is.Column, stepID)
}

// AddFile registers path with zeroed counters. Re-adding is a no-op.
func (c *Collector) AddFile(path string) {
	if _, ok := c.files[path]; ok {
		return
	}
	c.files[path] = &fileCounts{bySeverity: make(map[review.Severity]int)}
	c.fileOrder = append(c.fileOrder, path)
}

// AddIssue counts is unless an issue with the same dedup key was already
// counted. filePath, when non-empty, overrides is.FilePath. It reports
// whether the issue was counted.
func (c *Collector) AddIssue(stepID string, cat review.Category, sev review.Severity, is review.Issue, filePath string) bool {
	if filePath != "" {
		is.FilePath = filePath
	}
	if is.Severity == "" {
		is.Severity = sev
	}
	key := DedupKey(stepID, is)
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}

	c.total++
	c.severity[is.Severity]++
	c.category[cat]++

	sc, ok := c.steps[stepID]
	if !ok {
		sc = &stepCounts{category: cat, bySeverity: make(map[review.Severity]int)}
		c.steps[stepID] = sc
		c.stepOrder = append(c.stepOrder, stepID)
	}
	sc.total++
	sc.bySeverity[is.Severity]++

	if is.FilePath != "" {
		c.AddFile(is.FilePath)
		fc := c.files[is.FilePath]
		if fc.total == 0 {
			c.withIssues++
		}
		fc.total++
		fc.bySeverity[is.Severity]++
	}

	mc, ok := c.messages[is.Message]
	if !ok {
		mc = &messageCounts{category: cat, order: len(c.messages)}
		c.messages[is.Message] = mc
	}
	mc.count++
	if review.SeverityRank(is.Severity) > review.SeverityRank(mc.severity) {
		mc.severity = is.Severity
	}
	return true
}

// AddStepResult adds every issue of r. It returns the number counted.
func (c *Collector) AddStepResult(r review.StepResult) int {
	n := 0
	for _, is := range r.Issues {
		if c.AddIssue(r.StepID, r.Category, r.Severity, is, r.FilePath) {
			n++
		}
	}
	return n
}

// TotalIssues returns the number of distinct issues counted.
func (c *Collector) TotalIssues() int { return c.total }

// CategoryCount returns the number of issues in cat.
func (c *Collector) CategoryCount(cat review.Category) int { return c.category[cat] }

// Summary returns the aggregate statistics.
func (c *Collector) Summary() review.Statistics {
	s := review.Statistics{
		TotalFiles:       len(c.files),
		FilesWithIssues:  c.withIssues,
		TotalIssues:      c.total,
		IssuesByCategory: make(map[review.Category]int, len(c.category)),
		IssuesByStep:     make(map[string]int, len(c.steps)),
	}
	if s.TotalFiles > 0 {
		s.FilesWithIssuesPercent = float64(s.FilesWithIssues) / float64(s.TotalFiles) * 100
		s.IssuesPerFile = float64(s.TotalIssues) / float64(s.TotalFiles)
	}
	s.IssuesBySeverity = c.severityCounts()
	for cat, n := range c.category {
		s.IssuesByCategory[cat] = n
	}
	for id, sc := range c.steps {
		s.IssuesByStep[id] = sc.total
	}
	s.MostCommonIssues = c.mostCommon(mostCommonLimit)

	for _, id := range c.stepOrder {
		sc := c.steps[id]
		s.StepBreakdowns = append(s.StepBreakdowns, review.StepBreakdown{
			StepID:     id,
			Category:   sc.category,
			Total:      sc.total,
			BySeverity: copyCounts(sc.bySeverity),
		})
	}
	for _, p := range c.fileOrder {
		fc := c.files[p]
		s.FileBreakdowns = append(s.FileBreakdowns, review.FileBreakdown{
			Path:       p,
			Total:      fc.total,
			BySeverity: copyCounts(fc.bySeverity),
		})
	}
	return s
}

// severityCounts orders severities by rank, unknown severities last.
func (c *Collector) severityCounts() []review.SeverityCount {
	out := make([]review.SeverityCount, 0, len(c.severity))
	for sev, n := range c.severity {
		out = append(out, review.SeverityCount{Severity: sev, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].Severity < out[j].Severity
	})
	return out
}

type messageEntry struct {
	msg string
	*messageCounts
}

// sortedMessages orders messages by frequency, then first appearance.
func (c *Collector) sortedMessages() []messageEntry {
	out := make([]messageEntry, 0, len(c.messages))
	for msg, mc := range c.messages {
		out = append(out, messageEntry{msg: msg, messageCounts: mc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].order < out[j].order
	})
	return out
}

func (c *Collector) mostCommon(limit int) []review.MessageCount {
	var out []review.MessageCount
	for _, m := range c.sortedMessages() {
		if len(out) == limit {
			break
		}
		out = append(out, review.MessageCount{Message: m.msg, Count: m.count})
	}
	return out
}

// KeyFindings returns up to max findings: a critical finding when any
// critical issues exist, then a high finding, then recurring messages by
// frequency, then single occurrences.
func (c *Collector) KeyFindings(max int) []review.Finding {
	if max <= 0 {
		return nil
	}
	var out []review.Finding
	for _, sev := range []review.Severity{review.SeverityCritical, review.SeverityHigh} {
		n := c.severity[sev]
		if n == 0 {
			continue
		}
		kind := review.FindingCritical
		if sev == review.SeverityHigh {
			kind = review.FindingHigh
		}
		out = append(out, review.Finding{
			Kind:     kind,
			Severity: sev,
			Message:  fmt.Sprintf("%d %s severity issue(s) found", n, sev),
			Count:    n,
			Examples: c.examples(sev, 3),
		})
	}

	msgs := c.sortedMessages()
	for _, m := range msgs {
		if m.count <= 1 {
			continue
		}
		out = append(out, review.Finding{
			Kind:     review.FindingRecurring,
			Severity: m.severity,
			Category: m.category,
			Message:  m.msg,
			Count:    m.count,
		})
	}
	for _, m := range msgs {
		if m.count != 1 {
			continue
		}
		out = append(out, review.Finding{
			Kind:     review.FindingSingle,
			Severity: m.severity,
			Category: m.category,
			Message:  m.msg,
			Count:    1,
		})
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func (c *Collector) examples(sev review.Severity, limit int) []string {
	var out []string
	for _, m := range c.sortedMessages() {
		if len(out) == limit {
			break
		}
		if m.severity == sev {
			out = append(out, m.msg)
		}
	}
	return out
}

func copyCounts(m map[review.Severity]int) map[review.Severity]int {
	out := make(map[review.Severity]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
