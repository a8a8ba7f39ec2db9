package review

import "testing"

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityCritical, 5},
		{SeverityHigh, 4},
		{SeverityMedium, 3},
		{SeverityLow, 2},
		{SeverityInfo, 1},
		{Severity("unknown"), 0},
	}
	for _, tt := range tests {
		got := SeverityRank(tt.severity)
		if got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestSeveritiesOrdered(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		if Severities[i-1].Rank() <= Severities[i].Rank() {
			t.Errorf("Severities[%d]=%q does not outrank Severities[%d]=%q",
				i-1, Severities[i-1], i, Severities[i])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in     string
		want   Severity
		wantOK bool
	}{
		{"critical", SeverityCritical, true},
		{"  HIGH ", SeverityHigh, true},
		{"Info", SeverityInfo, true},
		{"severe", Severity("severe"), false},
		{"", Severity(""), false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSeverity(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityHigh, "none", false},
		{SeverityHigh, "", false},
		{SeverityCritical, "critical", true},
		{SeverityHigh, "critical", false},
		{SeverityHigh, "high", true},
		{SeverityHigh, "MEDIUM", true},
		{SeverityMedium, "high", false},
		{SeverityMedium, "medium", true},
		{SeverityLow, "medium", false},
		{SeverityLow, "low", true},
		{SeverityInfo, "low", false},
		{SeverityInfo, "info", true},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.severity, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestAggregateResult_HighestSeverity(t *testing.T) {
	r := &AggregateResult{
		Results: []StepResult{
			{Issues: []Issue{{Severity: SeverityLow}, {Severity: SeverityMedium}}},
			{Issues: []Issue{{Severity: SeverityHigh}}},
			{},
		},
	}
	if got := r.HighestSeverity(); got != SeverityHigh {
		t.Errorf("HighestSeverity = %q, want %q", got, SeverityHigh)
	}
	if n := len(r.Issues()); n != 3 {
		t.Errorf("Issues() = %d, want 3", n)
	}
}

func TestAggregateResult_HighestSeverity_Empty(t *testing.T) {
	r := ErrorResult("boom")
	if got := r.HighestSeverity(); got != "" {
		t.Errorf("HighestSeverity = %q, want empty", got)
	}
	if r.Status != StatusError {
		t.Errorf("Status = %q, want %q", r.Status, StatusError)
	}
	if r.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d, want 0", r.TotalIssues)
	}
}
