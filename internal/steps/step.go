package steps

import (
	"github.com/dshills/vaahai/internal/review"
)

// NoContentMessage is reported when a step receives empty content.
const NoContentMessage = "No content provided for review"

// Info describes a step type.
type Info struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Category    review.Category `json:"category" yaml:"category"`
	Severity    review.Severity `json:"severity" yaml:"severity"`
	Tags        []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
}

// HasTag reports whether the step carries tag.
func (i Info) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Input is what a step examines.
type Input struct {
	Content  string
	FilePath string
}

// Output is what a step reports.
type Output struct {
	Status  review.Status
	Message string
	Issues  []review.Issue
}

// Step is a single check run against file content. Implementations must be
// stateless across calls.
type Step interface {
	Info() Info
	Execute(in Input) (Output, error)
}

// Config is step-specific configuration (opaque to the registry).
type Config map[string]any

// Factory constructs a step with the provided configuration.
type Factory func(Config) (Step, error)

// Base provides the identity half of a Step.
type Base struct {
	info Info
}

// NewBase seeds the helper with step info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Step.Info.
func (b Base) Info() Info {
	return b.info
}

// noContent is the result for an empty input.
func noContent() Output {
	return Output{Status: review.StatusError, Message: NoContentMessage, Issues: []review.Issue{}}
}

// Int reads an integer setting, accepting the numeric types produced by
// YAML and JSON decoders.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
