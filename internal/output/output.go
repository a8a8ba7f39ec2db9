package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dshills/vaahai/internal/review"
)

// Writer writes a review result in a specific format.
type Writer interface {
	Write(w io.Writer, res *review.AggregateResult) error
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the result to the specified output (file path or stdout).
func WriteReport(res *review.AggregateResult, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, res)
}

// located is an issue with the step that reported it.
type located struct {
	StepID   string
	StepName string
	Category review.Category
	review.Issue
}

// flatten lists every issue of res with its file path filled in.
func flatten(res *review.AggregateResult) []located {
	var out []located
	for _, sr := range res.Results {
		for _, is := range sr.Issues {
			if is.FilePath == "" {
				is.FilePath = sr.FilePath
			}
			if is.Severity == "" {
				is.Severity = sr.Severity
			}
			out = append(out, located{StepID: sr.StepID, StepName: sr.StepName, Category: sr.Category, Issue: is})
		}
	}
	return out
}

// groupBySeverity buckets issues by severity, each bucket sorted by
// file then line.
func groupBySeverity(issues []located) map[review.Severity][]located {
	m := make(map[review.Severity][]located)
	for _, is := range issues {
		m[is.Severity] = append(m[is.Severity], is)
	}
	for _, bucket := range m {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].FilePath != bucket[j].FilePath {
				return bucket[i].FilePath < bucket[j].FilePath
			}
			return bucket[i].Line < bucket[j].Line
		})
	}
	return m
}

// failedSteps returns the step results that ended in error.
func failedSteps(res *review.AggregateResult) []review.StepResult {
	var out []review.StepResult
	for _, sr := range res.Results {
		if sr.Status == review.StatusError {
			out = append(out, sr)
		}
	}
	return out
}

func location(is located) string {
	path := is.FilePath
	if path == "" {
		path = "<stdin>"
	}
	if is.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", path, is.Line, is.Column)
	}
	return fmt.Sprintf("%s:%d", path, is.Line)
}
