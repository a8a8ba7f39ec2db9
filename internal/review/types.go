package review

import "strings"

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every known severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
// Unknown severities rank 0.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Rank is shorthand for SeverityRank(s).
func (s Severity) Rank() int { return SeverityRank(s) }

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return SeverityRank(s) > 0 }

// ParseSeverity normalizes a user supplied severity name.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	return sev, sev.Valid()
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(strings.ToLower(threshold)))
}

// Category represents the area an issue belongs to.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryBestPractice    Category = "best_practice"
	CategoryStyle           Category = "style"
	CategoryCorrectness     Category = "correctness"
	CategoryDocumentation   Category = "documentation"
)

// Status is the outcome of a step or a whole run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Issue is one problem reported by a step.
type Issue struct {
	Line           int      `json:"line"`
	Column         int      `json:"column"`
	Message        string   `json:"message"`
	Severity       Severity `json:"severity"`
	LineContent    string   `json:"line_content,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	CodeSnippet    string   `json:"code_snippet,omitempty"`
	SuggestedCode  string   `json:"suggested_code,omitempty"`
	FilePath       string   `json:"file_path,omitempty"`
}

// HasFix reports whether the issue carries a suggested replacement.
func (i Issue) HasFix() bool { return i.SuggestedCode != "" }

// StepResult is the output of running a single step.
type StepResult struct {
	StepID   string   `json:"step_id"`
	StepName string   `json:"step_name"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Status   Status   `json:"status"`
	Message  string   `json:"message"`
	Issues   []Issue  `json:"issues"`
	Duration float64  `json:"duration"`
	FilePath string   `json:"file_path,omitempty"`
}

// SeverityCount is one row of a severity histogram.
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// MessageCount is a message and how many times it was reported.
type MessageCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// StepBreakdown summarizes the issues produced by one step.
type StepBreakdown struct {
	StepID     string           `json:"step_id"`
	Category   Category         `json:"category"`
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// FileBreakdown summarizes the issues found in one file.
type FileBreakdown struct {
	Path       string           `json:"path"`
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// Statistics is the aggregate view produced by the statistics collector.
type Statistics struct {
	TotalFiles             int              `json:"total_files"`
	FilesWithIssues        int              `json:"files_with_issues"`
	FilesWithIssuesPercent float64          `json:"files_with_issues_percentage"`
	TotalIssues            int              `json:"total_issues"`
	IssuesPerFile          float64          `json:"issues_per_file"`
	IssuesBySeverity       []SeverityCount  `json:"issues_by_severity"`
	IssuesByCategory       map[Category]int `json:"issues_by_category"`
	IssuesByStep           map[string]int   `json:"issues_by_step"`
	MostCommonIssues       []MessageCount   `json:"most_common_issues"`
	StepBreakdowns         []StepBreakdown  `json:"step_breakdowns,omitempty"`
	FileBreakdowns         []FileBreakdown  `json:"file_breakdowns,omitempty"`
}

// FindingKind classifies a key finding.
type FindingKind string

const (
	FindingCritical  FindingKind = "critical"
	FindingHigh      FindingKind = "high"
	FindingRecurring FindingKind = "recurring"
	FindingSingle    FindingKind = "single"
	FindingCategory  FindingKind = "category"
)

// Finding is a prioritized observation derived from the collected issues.
type Finding struct {
	Kind     FindingKind `json:"type"`
	Severity Severity    `json:"severity,omitempty"`
	Category Category    `json:"category,omitempty"`
	Message  string      `json:"message"`
	Count    int         `json:"count"`
	Priority int         `json:"priority,omitempty"`
	Examples []string    `json:"examples,omitempty"`
}

// ProgressSummary reports step status counts for a run.
type ProgressSummary struct {
	Total              int     `json:"total"`
	Pending            int     `json:"pending"`
	InProgress         int     `json:"in_progress"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	Skipped            int     `json:"skipped"`
	ProgressPercentage float64 `json:"progress_percentage"`
	TotalDuration      float64 `json:"total_duration"`
}

// AggregateResult is the top-level output of a run.
type AggregateResult struct {
	Tool            string          `json:"tool"`
	Version         string          `json:"version"`
	RunID           string          `json:"run_id,omitempty"`
	Target          string          `json:"target,omitempty"`
	Status          Status          `json:"status"`
	Message         string          `json:"message"`
	Results         []StepResult    `json:"results"`
	TotalIssues     int             `json:"total_issues"`
	Progress        ProgressSummary `json:"progress"`
	Statistics      Statistics      `json:"statistics"`
	KeyFindings     []Finding       `json:"key_findings"`
	Recommendations []string        `json:"recommendations"`
	FileIssueCounts map[string]int  `json:"file_issue_counts,omitempty"`
}

// Issues returns every issue in the result, in step order.
func (r *AggregateResult) Issues() []Issue {
	var out []Issue
	for _, sr := range r.Results {
		out = append(out, sr.Issues...)
	}
	return out
}

// HighestSeverity returns the most severe issue severity in the result.
func (r *AggregateResult) HighestSeverity() Severity {
	var best Severity
	for _, sr := range r.Results {
		for _, is := range sr.Issues {
			if SeverityRank(is.Severity) > SeverityRank(best) {
				best = is.Severity
			}
		}
	}
	return best
}

// ErrorResult builds a failed AggregateResult carrying only a message.
func ErrorResult(msg string) *AggregateResult {
	return &AggregateResult{
		Status:          StatusError,
		Message:         msg,
		Results:         []StepResult{},
		KeyFindings:     []Finding{},
		Recommendations: []string{},
	}
}
