package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/vaahai/internal/review"
)

func sampleResult() *review.AggregateResult {
	return &review.AggregateResult{
		Tool:    "vaahai",
		Version: "1.0",
		Target:  "app.py",
		Status:  review.StatusSuccess,
		Message: "Review completed: 3 issue(s) found (1 step run(s) failed)",
		Results: []review.StepResult{
			{
				StepID:   "sql-injection",
				StepName: "SQL Injection",
				Category: review.CategorySecurity,
				Severity: review.SeverityCritical,
				Status:   review.StatusSuccess,
				FilePath: "app.py",
				Issues: []review.Issue{{
					Line:           12,
					Column:         5,
					Message:        "Possible SQL injection",
					Severity:       review.SeverityCritical,
					Recommendation: "Use parameterized queries",
				}},
			},
			{
				StepID:   "insecure-hash",
				StepName: "Insecure Hash",
				Category: review.CategorySecurity,
				Severity: review.SeverityHigh,
				Status:   review.StatusSuccess,
				FilePath: "app.py",
				Issues: []review.Issue{{
					Line:          3,
					Message:       "Insecure hash function",
					LineContent:   "h = hashlib.md5(x)",
					SuggestedCode: "h = hashlib.sha256(x)",
				}},
			},
			{
				StepID:   "line-length",
				Category: review.CategoryStyle,
				Severity: review.SeverityLow,
				Status:   review.StatusSuccess,
				FilePath: "util.py",
				Issues:   []review.Issue{{Line: 40, Message: "Line too long", Severity: review.SeverityLow}},
			},
			{
				StepID:   "broken",
				Category: review.CategoryCorrectness,
				Status:   review.StatusError,
				Message:  "Error executing step: boom",
				Issues:   []review.Issue{},
			},
		},
		TotalIssues: 3,
		Statistics: review.Statistics{
			TotalFiles:      2,
			FilesWithIssues: 2,
			TotalIssues:     3,
			IssuesBySeverity: []review.SeverityCount{
				{Severity: review.SeverityCritical, Count: 1},
				{Severity: review.SeverityHigh, Count: 1},
				{Severity: review.SeverityLow, Count: 1},
			},
		},
		KeyFindings:     []review.Finding{{Kind: review.FindingCritical, Severity: review.SeverityCritical, Message: "1 critical severity issue(s) found", Count: 1}},
		Recommendations: []string{"Address critical security issues immediately"},
	}
}

func TestGetWriter(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"", false},
		{"json", false},
		{"markdown", false},
		{"md", false},
		{"sarif", false},
		{"xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := GetWriter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetWriter(%q) err = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && w == nil {
				t.Error("expected non-nil writer")
			}
		})
	}
}

func TestWriteReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteReport(sampleResult(), "json", path); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}

func TestFlatten_FillsDefaults(t *testing.T) {
	res := &review.AggregateResult{Results: []review.StepResult{{
		StepID:   "x",
		Severity: review.SeverityMedium,
		FilePath: "a.py",
		Issues:   []review.Issue{{Line: 1}},
	}}}
	got := flatten(res)
	if len(got) != 1 {
		t.Fatalf("flatten = %d issues, want 1", len(got))
	}
	if got[0].FilePath != "a.py" || got[0].Severity != review.SeverityMedium || got[0].StepID != "x" {
		t.Errorf("flatten = %+v", got[0])
	}
}
