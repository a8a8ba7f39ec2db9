package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/vaahai/internal/review"
)

// Rule is one regex heuristic inside a PatternStep.
type Rule struct {
	Pattern        *regexp.Regexp
	Message        string
	Recommendation string
	// Severity overrides the step severity when set.
	Severity review.Severity
	// Replace, when non-nil, is a regexp replacement template applied to the
	// matching line to produce the suggested code.
	Replace *string
}

// PatternStep reports one issue per rule match per line.
type PatternStep struct {
	Base
	rules []Rule
}

// NewPatternStep returns a step that applies rules line by line.
func NewPatternStep(info Info, rules ...Rule) *PatternStep {
	return &PatternStep{Base: NewBase(info), rules: rules}
}

// Execute implements Step.
func (s *PatternStep) Execute(in Input) (Output, error) {
	if in.Content == "" {
		return noContent(), nil
	}
	lines := SplitLines(in.Content)
	issues := []review.Issue{}
	for i, line := range lines {
		for _, rule := range s.rules {
			loc := rule.Pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = s.info.Severity
			}
			is := review.Issue{
				Line:           i + 1,
				Column:         loc[0] + 1,
				Message:        rule.Message,
				Severity:       sev,
				LineContent:    line,
				Recommendation: rule.Recommendation,
				CodeSnippet:    Snippet(lines, i, 1),
				FilePath:       in.FilePath,
			}
			if rule.Replace != nil {
				fixed := rule.Pattern.ReplaceAllString(line, *rule.Replace)
				if fixed != line {
					is.SuggestedCode = fixed
				}
			}
			issues = append(issues, is)
		}
	}
	return Output{Status: review.StatusSuccess, Message: summarize(len(issues)), Issues: issues}, nil
}

// CheckFunc inspects whole-file content and returns issues.
type CheckFunc func(lines []string, in Input) []review.Issue

// FuncStep adapts a CheckFunc into a Step.
type FuncStep struct {
	Base
	check CheckFunc
}

// NewFuncStep returns a step backed by check.
func NewFuncStep(info Info, check CheckFunc) *FuncStep {
	return &FuncStep{Base: NewBase(info), check: check}
}

// Execute implements Step.
func (s *FuncStep) Execute(in Input) (Output, error) {
	if in.Content == "" {
		return noContent(), nil
	}
	issues := s.check(SplitLines(in.Content), in)
	if issues == nil {
		issues = []review.Issue{}
	}
	for i := range issues {
		if issues[i].Severity == "" {
			issues[i].Severity = s.info.Severity
		}
		if issues[i].FilePath == "" {
			issues[i].FilePath = in.FilePath
		}
	}
	return Output{Status: review.StatusSuccess, Message: summarize(len(issues)), Issues: issues}, nil
}

// SplitLines splits content into lines without their terminators. A trailing
// newline does not produce an empty final line.
func SplitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Snippet returns lines[idx-radius : idx+radius+1] joined by newlines.
func Snippet(lines []string, idx, radius int) string {
	lo := max(idx-radius, 0)
	hi := min(idx+radius+1, len(lines))
	return strings.Join(lines[lo:hi], "\n")
}

func summarize(n int) string {
	switch n {
	case 0:
		return "No issues found"
	case 1:
		return "Found 1 issue"
	default:
		return fmt.Sprintf("Found %d issues", n)
	}
}
