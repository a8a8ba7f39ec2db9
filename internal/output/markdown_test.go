package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/vaahai/internal/review"
)

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## Vaahai Code Review",
		"| Critical | 1 |",
		"| Medium | 0 |",
		"| **Total** | **3** |",
		"<summary>:rotating_light: CRITICAL (1)</summary>",
		"```diff\n- h = hashlib.md5(x)\n+ h = hashlib.sha256(x)\n```",
		"> Use parameterized queries",
		"#### Recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	res := &review.AggregateResult{Status: review.StatusSuccess}
	if err := (&MarkdownWriter{}).Write(&buf, res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestInferLang(t *testing.T) {
	tests := []struct{ path, want string }{
		{"a.py", "python"},
		{"A.PY", "python"},
		{"main.go", "go"},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := inferLang(tt.path); got != tt.want {
			t.Errorf("inferLang(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
