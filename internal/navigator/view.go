package navigator

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/vaahai/internal/changes"
	"github.com/dshills/vaahai/internal/review"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	severityStyles = map[review.Severity]lipgloss.Style{
		review.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		review.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		review.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		review.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		review.SeverityInfo:     dimStyle,
	}

	statusStyles = map[IssueStatus]lipgloss.Style{
		StatusPending:  dimStyle,
		StatusAccepted: addedStyle,
		StatusRejected: removedStyle,
	}
)

func severityLabel(sev review.Severity) string {
	st, ok := severityStyles[sev]
	if !ok {
		st = dimStyle
	}
	return st.Render(strings.ToUpper(string(sev)))
}

// Header renders the position line for the current issue.
func Header(s *Session) string {
	if s.Len() == 0 {
		return titleStyle.Render("vaahai fix") + "  " + dimStyle.Render("no issues")
	}
	mode := "immediate"
	if s.Batch() {
		mode = "batch"
	}
	c := s.Counts()
	return fmt.Sprintf("%s  issue %d/%d  file %d/%d  %s  %s",
		titleStyle.Render("vaahai fix"),
		s.Index()+1, s.Len(),
		s.FileIndex()+1, len(s.Files()),
		dimStyle.Render("mode: "+mode),
		dimStyle.Render(fmt.Sprintf("accepted %d, rejected %d, pending %d",
			c[StatusAccepted], c[StatusRejected], c[StatusPending])),
	)
}

// IssueView renders the current issue with its suggested fix.
func IssueView(s *Session) string {
	it, ok := s.Current()
	if !ok {
		return "Nothing to review."
	}
	is := it.Issue
	st := s.Status(s.Index())
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d  %s  %s  [%s]\n",
		is.FilePath, is.Line, severityLabel(is.Severity), dimStyle.Render(it.StepID),
		statusStyles[st].Render(string(st)))
	b.WriteString(is.Message)
	b.WriteString("\n")
	if is.Recommendation != "" {
		b.WriteString(dimStyle.Render("Recommendation: " + is.Recommendation))
		b.WriteString("\n")
	}
	if is.CodeSnippet != "" {
		b.WriteString("\n")
		b.WriteString(is.CodeSnippet)
		b.WriteString("\n")
	}
	if is.HasFix() {
		b.WriteString("\n")
		b.WriteString(removedStyle.Render("- " + is.LineContent))
		b.WriteString("\n")
		for _, l := range strings.Split(is.SuggestedCode, "\n") {
			b.WriteString(addedStyle.Render("+ " + l))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(dimStyle.Render("(no suggested fix)"))
		b.WriteString("\n")
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// SummaryView renders the change summary shown on quit.
func SummaryView(sum changes.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Change summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %d\n", addedStyle.Render("applied: "), sum.Applied)
	fmt.Fprintf(&b, "  %s %d\n", removedStyle.Render("rejected:"), sum.Rejected)
	fmt.Fprintf(&b, "  %s %d\n", dimStyle.Render("pending: "), sum.Pending)
	for _, c := range sum.AppliedChanges {
		suffix := ""
		if c.DryRun {
			suffix = " (dry run)"
		}
		fmt.Fprintf(&b, "  + %s:%d%s\n", c.FilePath, c.LineNumber, suffix)
	}
	for _, c := range sum.RejectedChanges {
		fmt.Fprintf(&b, "  - %s:%d\n", c.FilePath, c.LineNumber)
	}
	for _, c := range sum.PendingChanges {
		fmt.Fprintf(&b, "  ? %s:%d\n", c.FilePath, c.LineNumber)
	}
	return b.String()
}
