package review

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules_Empty(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != nil {
		t.Error("expected nil rules for empty path")
	}
}

func TestLoadRules_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	content := `{"focus": ["security", "style"], "severityOverrides": {"style": "low", "security": "critical"}, "disabled": ["todo-comments"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules error: %v", err)
	}
	if rules == nil {
		t.Fatal("expected non-nil rules")
	}
	if len(rules.Focus) != 2 {
		t.Errorf("Focus = %d, want 2", len(rules.Focus))
	}
	if rules.SeverityOverrides["security"] != "critical" {
		t.Errorf("SeverityOverrides[security] = %q, want %q", rules.SeverityOverrides["security"], "critical")
	}
	if len(rules.Disabled) != 1 || rules.Disabled[0] != "todo-comments" {
		t.Errorf("Disabled = %v, want [todo-comments]", rules.Disabled)
	}
}

func TestLoadRules_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "severityOverrides:\n  performance: high\ndisabled:\n  - line-length\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules error: %v", err)
	}
	if rules.SeverityOverrides["performance"] != "high" {
		t.Errorf("SeverityOverrides[performance] = %q, want high", rules.SeverityOverrides["performance"])
	}
}

func TestLoadRules_NotFound(t *testing.T) {
	_, err := LoadRules("/nonexistent/path/rules.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadRules_InvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("focus: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for invalid syntax")
	}
}

func TestLoadRules_InvalidSeverity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(`{"severityOverrides":{"style":"urgent"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestAllowsStep(t *testing.T) {
	rules := &Rules{Focus: []string{"security"}, Disabled: []string{"eval-usage"}}
	tests := []struct {
		id   string
		cat  Category
		want bool
	}{
		{"sql-injection", CategorySecurity, true},
		{"eval-usage", CategorySecurity, false},
		{"line-length", CategoryStyle, false},
	}
	for _, tt := range tests {
		if got := rules.AllowsStep(tt.id, tt.cat); got != tt.want {
			t.Errorf("AllowsStep(%q, %q) = %v, want %v", tt.id, tt.cat, got, tt.want)
		}
	}

	var nilRules *Rules
	if !nilRules.AllowsStep("anything", CategoryStyle) {
		t.Error("nil rules should allow every step")
	}
}

func TestApplySeverityOverrides(t *testing.T) {
	issues := []Issue{{Severity: SeverityLow}, {Severity: SeverityInfo}}
	rules := &Rules{SeverityOverrides: map[string]string{"style": "High"}}

	got := ApplySeverityOverrides(issues, CategoryStyle, rules)
	for i, is := range got {
		if is.Severity != SeverityHigh {
			t.Errorf("issues[%d].Severity = %q, want %q", i, is.Severity, SeverityHigh)
		}
	}

	other := []Issue{{Severity: SeverityLow}}
	got = ApplySeverityOverrides(other, CategorySecurity, rules)
	if got[0].Severity != SeverityLow {
		t.Errorf("unrelated category changed to %q", got[0].Severity)
	}

	got = ApplySeverityOverrides(other, CategoryStyle, nil)
	if got[0].Severity != SeverityLow {
		t.Errorf("nil rules changed severity to %q", got[0].Severity)
	}
}
