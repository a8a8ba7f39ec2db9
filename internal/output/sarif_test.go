package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dshills/vaahai/internal/review"
)

func TestSARIFWriter_Empty(t *testing.T) {
	res := &review.AggregateResult{Tool: "vaahai", Version: "1.0", Status: review.StatusSuccess}

	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, res); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var sarif sarifLog
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	if sarif.Version != "2.1.0" {
		t.Errorf("Version = %q, want %q", sarif.Version, "2.1.0")
	}
	if len(sarif.Runs) != 1 {
		t.Fatalf("Runs count = %d, want 1", len(sarif.Runs))
	}
	if len(sarif.Runs[0].Results) != 0 {
		t.Errorf("Results count = %d, want 0", len(sarif.Runs[0].Results))
	}
}

func TestSARIFWriter_WithIssues(t *testing.T) {
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var sarif sarifLog
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	run := sarif.Runs[0]
	if len(run.Tool.Driver.Rules) != 4 {
		t.Errorf("Rules = %d, want 4", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 3 {
		t.Fatalf("Results = %d, want 3", len(run.Results))
	}

	first := run.Results[0]
	if first.RuleID != "sql-injection" || first.Level != "error" {
		t.Errorf("first result = %+v", first)
	}
	region := first.Locations[0].PhysicalLocation.Region
	if region.StartLine != 12 || region.StartColumn != 5 {
		t.Errorf("region = %+v, want 12:5", region)
	}
	if len(run.Results[1].Fixes) != 1 {
		t.Error("suggested fix not reported")
	}
	if run.Results[2].Level != "note" {
		t.Errorf("low severity level = %q, want note", run.Results[2].Level)
	}

	inv := run.Invocations[0]
	if !inv.ExecutionSuccessful {
		t.Error("ExecutionSuccessful = false")
	}
	if len(inv.ToolExecutionNotifications) != 1 || inv.ToolExecutionNotifications[0].Descriptor.ID != "broken" {
		t.Errorf("notifications = %+v", inv.ToolExecutionNotifications)
	}
}

func TestSeverityToLevel(t *testing.T) {
	tests := []struct {
		sev  review.Severity
		want string
	}{
		{review.SeverityCritical, "error"},
		{review.SeverityHigh, "error"},
		{review.SeverityMedium, "warning"},
		{review.SeverityLow, "note"},
		{review.SeverityInfo, "note"},
		{"", "note"},
	}
	for _, tt := range tests {
		if got := severityToLevel(tt.sev); got != tt.want {
			t.Errorf("severityToLevel(%q) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
