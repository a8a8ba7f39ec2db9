package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/vaahai/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, res *review.AggregateResult) error {
	ew := &errWriter{w: w}

	ew.println("Vaahai Code Review")
	if res.Target != "" {
		ew.printf("Target: %s\n", res.Target)
	}
	ew.println(strings.Repeat("─", 60))
	if res.Status == review.StatusError {
		ew.printf("Error: %s\n", res.Message)
		return ew.err
	}

	st := res.Statistics
	ew.printf("Issues: %d total", res.TotalIssues)
	if len(st.IssuesBySeverity) > 0 {
		parts := make([]string, 0, len(st.IssuesBySeverity))
		for _, sc := range st.IssuesBySeverity {
			parts = append(parts, fmt.Sprintf("%d %s", sc.Count, sc.Severity))
		}
		ew.printf(" (%s)", strings.Join(parts, ", "))
	}
	ew.println("")
	if st.TotalFiles > 0 {
		ew.printf("Files: %d reviewed, %d with issues (%.1f%%)\n",
			st.TotalFiles, st.FilesWithIssues, st.FilesWithIssuesPercent)
	}
	ew.println(strings.Repeat("─", 60))

	if res.TotalIssues == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	grouped := groupBySeverity(flatten(res))
	for _, sev := range review.Severities {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}
		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))

		for _, is := range issues {
			ew.printf("\n  %s  %s\n", location(is), is.Message)
			ew.printf("  Step: %s | Category: %s\n", is.StepID, is.Category)
			if is.Recommendation != "" {
				for _, line := range wrapText(is.Recommendation, 70) {
					ew.printf("    %s\n", line)
				}
			}
			if is.HasFix() {
				ew.printf("    - %s\n", strings.TrimSpace(is.LineContent))
				ew.printf("    + %s\n", strings.TrimSpace(is.SuggestedCode))
			}
		}
	}

	if failed := failedSteps(res); len(failed) > 0 {
		ew.printf("\n%s\n", "Failed steps:")
		for _, sr := range failed {
			ew.printf("  %s: %s\n", sr.StepID, sr.Message)
		}
	}

	if len(res.KeyFindings) > 0 {
		ew.println("\nKey findings:")
		for _, f := range res.KeyFindings {
			ew.printf("  [%s] %s\n", f.Severity, f.Message)
		}
	}
	if len(res.Recommendations) > 0 {
		ew.println("\nRecommendations:")
		for i, r := range res.Recommendations {
			ew.printf("  %d. %s\n", i+1, r)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("%s (%.0f%% complete in %.2fs)\n",
		res.Message, res.Progress.ProgressPercentage, res.Progress.TotalDuration)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!!]"
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	case review.SeverityInfo:
		return "[i]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
