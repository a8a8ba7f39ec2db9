package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/vaahai/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *review.AggregateResult) error {
	ew := &errWriter{w: w}
	ew.printf("## Vaahai Code Review\n\n")
	if res.Target != "" {
		ew.printf("Target: `%s`\n\n", res.Target)
	}
	if res.Status == review.StatusError {
		ew.printf("**Error:** %s\n", res.Message)
		return ew.err
	}

	counts := make(map[review.Severity]int)
	for _, sc := range res.Statistics.IssuesBySeverity {
		counts[sc.Severity] = sc.Count
	}
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	for _, sev := range review.Severities {
		ew.printf("| %s | %d |\n", titleCase(string(sev)), counts[sev])
	}
	ew.printf("| **Total** | **%d** |\n\n", res.TotalIssues)

	if res.TotalIssues == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	grouped := groupBySeverity(flatten(res))
	for _, sev := range review.Severities {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(issues))

		for _, is := range issues {
			ew.printf("### %s\n\n", is.Message)
			ew.printf("**`%s`** | %s | `%s`\n\n", location(is), is.Category, is.StepID)
			if is.Recommendation != "" {
				ew.printf("> %s\n\n", strings.ReplaceAll(is.Recommendation, "\n", "\n> "))
			}
			if is.HasFix() {
				ew.printf("**Suggested fix:**\n\n")
				ew.printf("```diff\n- %s\n+ %s\n```\n\n",
					strings.TrimRight(is.LineContent, "\n"), strings.TrimRight(is.SuggestedCode, "\n"))
			} else if is.CodeSnippet != "" {
				ew.printf("```%s\n%s\n```\n\n", inferLang(is.FilePath), is.CodeSnippet)
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	if len(res.Recommendations) > 0 {
		ew.printf("#### Recommendations\n\n")
		for _, r := range res.Recommendations {
			ew.printf("- %s\n", r)
		}
		ew.println("")
	}

	ew.printf("*%s*\n", res.Message)
	return ew.err
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":rotating_light:"
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

var langByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".pyi":  "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rb":   "ruby",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
}

func inferLang(path string) string {
	return langByExt[strings.ToLower(filepath.Ext(path))]
}
