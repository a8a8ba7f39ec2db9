package steps

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/dshills/vaahai/internal/redact"
	"github.com/dshills/vaahai/internal/review"
)

const (
	defaultMaxLineLength = 100
	defaultMaxFileLines  = 500
)

func replace(s string) *string { return &s }

// patternDef builds a Definition for a fixed set of rules.
func patternDef(info Info, rules ...Rule) Definition {
	info.Enabled = true
	return Definition{
		Info: info,
		New: func(Config) (Step, error) {
			return NewPatternStep(info, rules...), nil
		},
	}
}

// Builtins returns the built-in step table.
func Builtins() []Definition {
	return []Definition{
		secretsDef(),
		patternDef(Info{
			ID:          "sql-injection",
			Name:        "SQL Injection",
			Description: "Detects SQL statements assembled with string formatting or concatenation.",
			Category:    review.CategorySecurity,
			Severity:    review.SeverityHigh,
			Tags:        []string{"security", "sql"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`(?i)\b(execute|executemany|query|raw)\s*\(\s*f["']`),
				Message:        "SQL query built with an f-string",
				Recommendation: "Use parameterized queries instead of interpolating values.",
			},
			Rule{
				Pattern:        regexp.MustCompile(`(?i)["']\s*(select|insert|update|delete)\b[^"']*["']\s*(\+|%\s*[\w(])`),
				Message:        "SQL query built with string concatenation or % formatting",
				Recommendation: "Use parameterized queries instead of concatenating values.",
			},
		),
		patternDef(Info{
			ID:          "eval-usage",
			Name:        "Dynamic Code Execution",
			Description: "Flags eval and exec calls that may run untrusted input.",
			Category:    review.CategorySecurity,
			Severity:    review.SeverityHigh,
			Tags:        []string{"security"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`(^|[^\w.])(eval|exec)\s*\(`),
				Message:        "Use of eval/exec can execute arbitrary code",
				Recommendation: "Parse the input explicitly (for example with ast.literal_eval or json.loads).",
			},
		),
		patternDef(Info{
			ID:          "insecure-hash",
			Name:        "Insecure Hash",
			Description: "Flags MD5 and SHA-1 usage.",
			Category:    review.CategorySecurity,
			Severity:    review.SeverityMedium,
			Tags:        []string{"security", "crypto"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`\b(md5|sha1)(\s*\()`),
				Message:        "Weak hash algorithm",
				Recommendation: "Use SHA-256 or stronger.",
				Replace:        replace("sha256$2"),
			},
		),
		patternDef(Info{
			ID:          "debug-statements",
			Name:        "Debug Statements",
			Description: "Finds leftover print, console.log and debugger calls.",
			Category:    review.CategoryBestPractice,
			Severity:    review.SeverityLow,
			Tags:        []string{"cleanup"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`^\s*(print\s*\(|console\.log\s*\(|pdb\.set_trace\s*\(|breakpoint\s*\(\s*\)|debugger\b)`),
				Message:        "Debug statement left in code",
				Recommendation: "Remove the statement or use a logger.",
			},
		),
		patternDef(Info{
			ID:          "bare-except",
			Name:        "Bare Except",
			Description: "Flags except clauses that catch everything.",
			Category:    review.CategoryBestPractice,
			Severity:    review.SeverityMedium,
			Tags:        []string{"python", "errors"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`^(\s*)except\s*:`),
				Message:        "Bare except catches SystemExit and KeyboardInterrupt",
				Recommendation: "Catch Exception or a narrower exception type.",
				Replace:        replace("${1}except Exception:"),
			},
		),
		patternDef(Info{
			ID:          "todo-comments",
			Name:        "TODO Comments",
			Description: "Lists TODO, FIXME, XXX and HACK markers.",
			Category:    review.CategoryMaintainability,
			Severity:    review.SeverityInfo,
			Tags:        []string{"cleanup"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`(#|//|/\*)\s*(TODO|FIXME|XXX|HACK)\b`),
				Message:        "Unresolved TODO marker",
				Recommendation: "Resolve the item or track it in an issue.",
			},
		),
		patternDef(Info{
			ID:          "wildcard-import",
			Name:        "Wildcard Import",
			Description: "Flags from-module-import-star statements.",
			Category:    review.CategoryMaintainability,
			Severity:    review.SeverityLow,
			Tags:        []string{"python", "imports"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`^\s*from\s+\S+\s+import\s+\*`),
				Message:        "Wildcard import pollutes the namespace",
				Recommendation: "Import the names you use explicitly.",
			},
		),
		patternDef(Info{
			ID:          "range-len-loop",
			Name:        "range(len()) Loop",
			Description: "Suggests enumerate for index loops over a sequence.",
			Category:    review.CategoryPerformance,
			Severity:    review.SeverityLow,
			Tags:        []string{"python", "idiom"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`\bfor\s+(\w+)\s+in\s+range\s*\(\s*len\s*\(\s*([\w.]+)\s*\)\s*\)\s*:`),
				Message:        "Use enumerate() instead of range(len())",
				Recommendation: "Iterate with enumerate to get index and item together.",
				Replace:        replace("for ${1}, _ in enumerate(${2}):"),
			},
		),
		patternDef(Info{
			ID:          "trailing-whitespace",
			Name:        "Trailing Whitespace",
			Description: "Finds spaces and tabs at the end of lines.",
			Category:    review.CategoryStyle,
			Severity:    review.SeverityInfo,
			Tags:        []string{"style", "whitespace"},
		},
			Rule{
				Pattern:        regexp.MustCompile(`[ \t]+$`),
				Message:        "Trailing whitespace",
				Recommendation: "Strip whitespace at the end of the line.",
				Replace:        replace(""),
			},
		),
		lineLengthDef(),
		largeFileDef(),
	}
}

// DefaultRegistry returns a registry populated from Builtins.
func DefaultRegistry(logger *log.Logger) *Registry {
	r := NewRegistry(logger)
	for _, def := range Builtins() {
		r.Register(def.Info.ID, def)
	}
	return r
}

func secretsDef() Definition {
	info := Info{
		ID:          "hardcoded-secrets",
		Name:        "Hardcoded Secrets",
		Description: "Detects API keys, tokens, passwords and private keys committed in source.",
		Category:    review.CategorySecurity,
		Severity:    review.SeverityCritical,
		Tags:        []string{"security", "secrets"},
		Enabled:     true,
	}
	return Definition{
		Info: info,
		New: func(Config) (Step, error) {
			return NewFuncStep(info, func(lines []string, in Input) []review.Issue {
				var out []review.Issue
				for i, line := range lines {
					for _, m := range redact.Find(line) {
						out = append(out, review.Issue{
							Line:           i + 1,
							Column:         m.Column,
							Message:        fmt.Sprintf("Possible hardcoded %s", m.Name),
							LineContent:    line,
							CodeSnippet:    Snippet(lines, i, 1),
							Recommendation: "Load secrets from the environment or a secret manager.",
						})
					}
				}
				return out
			}), nil
		},
	}
}

func lineLengthDef() Definition {
	info := Info{
		ID:          "line-length",
		Name:        "Line Length",
		Description: "Flags lines longer than max_length characters.",
		Category:    review.CategoryStyle,
		Severity:    review.SeverityLow,
		Tags:        []string{"style"},
		Enabled:     true,
	}
	return Definition{
		Info:   info,
		Schema: `{"type":"object","properties":{"max_length":{"type":"integer","minimum":1}}}`,
		New: func(cfg Config) (Step, error) {
			limit := cfg.Int("max_length", defaultMaxLineLength)
			if limit < 1 {
				return nil, fmt.Errorf("max_length must be positive, got %d", limit)
			}
			return NewFuncStep(info, func(lines []string, _ Input) []review.Issue {
				var out []review.Issue
				for i, line := range lines {
					n := len([]rune(line))
					if n <= limit {
						continue
					}
					out = append(out, review.Issue{
						Line:           i + 1,
						Column:         limit + 1,
						Message:        fmt.Sprintf("Line too long (%d > %d characters)", n, limit),
						LineContent:    line,
						Recommendation: "Wrap the line or extract an expression.",
					})
				}
				return out
			}), nil
		},
	}
}

func largeFileDef() Definition {
	info := Info{
		ID:          "large-file",
		Name:        "Large File",
		Description: "Flags files with more than max_lines lines.",
		Category:    review.CategoryMaintainability,
		Severity:    review.SeverityLow,
		Tags:        []string{"size"},
		Enabled:     true,
	}
	return Definition{
		Info:   info,
		Schema: `{"type":"object","properties":{"max_lines":{"type":"integer","minimum":1}}}`,
		New: func(cfg Config) (Step, error) {
			limit := cfg.Int("max_lines", defaultMaxFileLines)
			return NewFuncStep(info, func(lines []string, _ Input) []review.Issue {
				if len(lines) <= limit {
					return nil
				}
				return []review.Issue{{
					Line:           1,
					Column:         1,
					Message:        fmt.Sprintf("File has %d lines (limit %d)", len(lines), limit),
					Recommendation: "Split the file into smaller modules.",
					LineContent:    lines[0],
				}}
			}), nil
		},
	}
}
