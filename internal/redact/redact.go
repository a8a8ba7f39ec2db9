package redact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/vaahai/internal/review"
)

const placeholder = "[REDACTED]"

// Pattern is a named secret heuristic.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []Pattern{
	{"api key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"AWS access key id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"AWS secret access key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"password or token", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"JWT", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`)},
	{"GitHub token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"Slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"Anthropic API key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"OpenAI API key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
	{"connection string", regexp.MustCompile(`(?i)\b(postgres|postgresql|mysql|mongodb(\+srv)?|redis|amqp)://[^:\s/]+:[^@\s]+@`)},
}

// Patterns returns the secret heuristics in detection order.
func Patterns() []Pattern {
	out := make([]Pattern, len(secretPatterns))
	copy(out, secretPatterns)
	return out
}

// Match is one secret found in a line.
type Match struct {
	Name   string
	Column int // 1-based
}

// Find returns the first match of each pattern in line.
func Find(line string) []Match {
	var out []Match
	for _, p := range secretPatterns {
		if loc := p.Re.FindStringIndex(line); loc != nil {
			out = append(out, Match{Name: p.Name, Column: loc[0] + 1})
		}
	}
	return out
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, p := range secretPatterns {
		result = p.Re.ReplaceAllString(result, placeholder)
	}
	return result
}

// Issue masks secrets in the displayed context of an issue. The suggested
// code is left untouched so fixes still apply.
func Issue(is review.Issue) review.Issue {
	is.LineContent = Secrets(is.LineContent)
	is.CodeSnippet = Secrets(is.CodeSnippet)
	return is
}

// Result masks every issue in r in place.
func Result(r *review.AggregateResult) {
	for i := range r.Results {
		for j := range r.Results[i].Issues {
			r.Results[i].Issues[j] = Issue(r.Results[i].Issues[j])
		}
	}
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/.env" style patterns match on the base name.
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			matched, err = filepath.Match(cleanPattern, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
