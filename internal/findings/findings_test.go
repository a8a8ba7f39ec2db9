package findings

import (
	"strings"
	"testing"

	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/stats"
)

func add(c *stats.Collector, step string, cat review.Category, sev review.Severity, line int, msg string) {
	c.AddIssue(step, cat, sev, review.Issue{Line: line, Message: msg, Severity: sev}, "f.py")
}

func TestGenerateFindings_Order(t *testing.T) {
	c := stats.New()
	add(c, "secrets", review.CategorySecurity, review.SeverityCritical, 1, "hardcoded secret")
	add(c, "sql", review.CategorySecurity, review.SeverityHigh, 2, "sql injection")
	add(c, "range", review.CategoryPerformance, review.SeverityLow, 3, "range len")
	add(c, "range", review.CategoryPerformance, review.SeverityLow, 4, "range len")
	add(c, "style", review.CategoryStyle, review.SeverityInfo, 5, "trailing whitespace")

	got := New(c).GenerateFindings(20)
	if len(got) < 4 {
		t.Fatalf("GenerateFindings = %d findings", len(got))
	}
	if got[0].Kind != review.FindingCritical {
		t.Errorf("got[0].Kind = %q, want critical", got[0].Kind)
	}
	if got[1].Kind != review.FindingHigh {
		t.Errorf("got[1].Kind = %q, want high", got[1].Kind)
	}
	if got[2].Kind != review.FindingCategory || got[2].Category != review.CategorySecurity {
		t.Errorf("got[2] = %+v, want security category finding", got[2])
	}
	if got[3].Kind != review.FindingCategory || got[3].Category != review.CategoryPerformance {
		t.Errorf("got[3] = %+v, want performance category finding", got[3])
	}
	for _, f := range got {
		if f.Kind == review.FindingCategory && f.Category == review.CategoryStyle {
			t.Error("style should not get a category finding")
		}
	}
}

func TestGenerateFindings_Truncates(t *testing.T) {
	c := stats.New()
	for i := 0; i < 8; i++ {
		add(c, "s", review.CategoryMaintainability, review.SeverityLow, i, string(rune('a'+i)))
	}
	if n := len(New(c).GenerateFindings(3)); n != 3 {
		t.Errorf("GenerateFindings(3) = %d, want 3", n)
	}
}

func TestRecommendations_CriticalSecurityCombined(t *testing.T) {
	c := stats.New()
	add(c, "secrets", review.CategorySecurity, review.SeverityCritical, 1, "hardcoded secret")

	recs := New(c).Recommendations()
	if len(recs) != 1 {
		t.Fatalf("Recommendations = %v, want one combined message", recs)
	}
	if !strings.Contains(recs[0], "critical") || !strings.Contains(recs[0], "security") {
		t.Errorf("recommendation = %q, want critical+security", recs[0])
	}
}

func TestRecommendations_RecurringNeedsThree(t *testing.T) {
	c := stats.New()
	add(c, "todo", review.CategoryStyle, review.SeverityInfo, 1, "twice")
	add(c, "todo", review.CategoryStyle, review.SeverityInfo, 2, "twice")
	add(c, "ws", review.CategoryStyle, review.SeverityInfo, 3, "thrice")
	add(c, "ws", review.CategoryStyle, review.SeverityInfo, 4, "thrice")
	add(c, "ws", review.CategoryStyle, review.SeverityInfo, 5, "thrice")

	recs := New(c).Recommendations()
	if len(recs) != 1 {
		t.Fatalf("Recommendations = %v, want 1", recs)
	}
	if !strings.Contains(recs[0], `"thrice"`) {
		t.Errorf("recommendation = %q, want thrice", recs[0])
	}
}

func TestRecommendations_Capped(t *testing.T) {
	c := stats.New()
	add(c, "a", review.CategorySecurity, review.SeverityCritical, 1, "c")
	add(c, "a", review.CategorySecurity, review.SeverityHigh, 2, "h")
	add(c, "b", review.CategoryPerformance, review.SeverityLow, 3, "p")
	add(c, "c", review.CategoryMaintainability, review.SeverityLow, 4, "m")
	add(c, "d", review.CategoryBestPractice, review.SeverityLow, 5, "b")
	for i := 0; i < 4; i++ {
		add(c, "e", review.CategoryStyle, review.SeverityLow, 10+i, "r1")
		add(c, "f", review.CategoryStyle, review.SeverityLow, 20+i, "r2")
	}
	recs := New(c).Recommendations()
	if len(recs) > MaxRecommendations {
		t.Errorf("Recommendations = %d, want <= %d", len(recs), MaxRecommendations)
	}
	seen := map[string]bool{}
	for _, r := range recs {
		if seen[r] {
			t.Errorf("duplicate recommendation %q", r)
		}
		seen[r] = true
	}
}

func TestRecommendations_Empty(t *testing.T) {
	recs := New(stats.New()).Recommendations()
	if recs == nil || len(recs) != 0 {
		t.Errorf("Recommendations = %#v, want empty non-nil", recs)
	}
}
