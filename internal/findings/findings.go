package findings

import (
	"fmt"
	"sort"

	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/stats"
)

// MaxRecommendations caps Recommendations.
const MaxRecommendations = 5

// DefaultMaxFindings is used when a caller passes a non-positive max.
const DefaultMaxFindings = 10

// categoryPriority assigns explicit weights to category findings.
var categoryPriority = []struct {
	cat      review.Category
	priority int
	advice   string
}{
	{review.CategorySecurity, 1, "Review the %d security issue(s) and remove unsafe patterns."},
	{review.CategoryPerformance, 2, "Address the %d performance issue(s) in hot code paths."},
	{review.CategoryMaintainability, 3, "Reduce the %d maintainability issue(s) to keep the code easy to change."},
	{review.CategoryBestPractice, 4, "Follow best practices for the %d flagged construct(s)."},
}

// Reporter layers category prioritization and recommendation text on top of
// a stats.Collector.
type Reporter struct {
	c *stats.Collector
}

// New returns a Reporter reading from c.
func New(c *stats.Collector) *Reporter {
	return &Reporter{c: c}
}

// GenerateFindings returns the collector's key findings plus one finding per
// prioritized category with at least one issue, sorted and truncated to max.
func (r *Reporter) GenerateFindings(max int) []review.Finding {
	if max <= 0 {
		max = DefaultMaxFindings
	}
	all := r.c.KeyFindings(max)
	for _, cp := range categoryPriority {
		n := r.c.CategoryCount(cp.cat)
		if n == 0 {
			continue
		}
		all = append(all, review.Finding{
			Kind:     review.FindingCategory,
			Category: cp.cat,
			Message:  fmt.Sprintf("%d %s issue(s) found", n, cp.cat),
			Count:    n,
			Priority: cp.priority,
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return sortKey(all[i]) < sortKey(all[j])
	})
	if len(all) > max {
		all = all[:max]
	}
	return all
}

// sortKey orders critical, then high, then categories by priority, then
// recurring and single findings by severity.
func sortKey(f review.Finding) int {
	if f.Priority > 0 {
		return f.Priority * 10
	}
	sevOffset := 5 - f.Severity.Rank()
	switch f.Kind {
	case review.FindingCritical:
		return 0
	case review.FindingHigh:
		return 1
	case review.FindingRecurring:
		return 50 + sevOffset
	case review.FindingSingle:
		return 60 + sevOffset
	default:
		return 70 + sevOffset
	}
}

// Recommendations returns at most MaxRecommendations strings derived from
// the sorted findings. A severity, category or message is recommended at
// most once.
func (r *Reporter) Recommendations() []string {
	fs := r.GenerateFindings(DefaultMaxFindings)

	hasSecurity := false
	for _, f := range fs {
		if f.Kind == review.FindingCategory && f.Category == review.CategorySecurity {
			hasSecurity = true
		}
	}

	coveredSev := make(map[review.Severity]bool)
	coveredCat := make(map[review.Category]bool)
	coveredMsg := make(map[string]bool)
	out := []string{}
	add := func(s string) { out = append(out, s) }

	for _, f := range fs {
		if len(out) == MaxRecommendations {
			break
		}
		switch f.Kind {
		case review.FindingCritical:
			if coveredSev[f.Severity] {
				continue
			}
			coveredSev[f.Severity] = true
			if hasSecurity {
				coveredCat[review.CategorySecurity] = true
				add(fmt.Sprintf("Fix the %d critical issue(s) immediately; they include security problems that must be resolved before merging.", f.Count))
				continue
			}
			add(fmt.Sprintf("Fix the %d critical issue(s) before merging.", f.Count))
		case review.FindingHigh:
			if coveredSev[f.Severity] {
				continue
			}
			coveredSev[f.Severity] = true
			add(fmt.Sprintf("Prioritize the %d high severity issue(s).", f.Count))
		case review.FindingCategory:
			if coveredCat[f.Category] {
				continue
			}
			coveredCat[f.Category] = true
			for _, cp := range categoryPriority {
				if cp.cat == f.Category {
					add(fmt.Sprintf(cp.advice, f.Count))
				}
			}
		case review.FindingRecurring:
			if f.Count <= 2 || coveredMsg[f.Message] {
				continue
			}
			coveredMsg[f.Message] = true
			add(fmt.Sprintf("Fix the recurring issue %q (%d occurrences) with a single systematic change.", f.Message, f.Count))
		}
	}
	return out
}
