package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/vaahai/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, res *review.AggregateResult) error {
	sarif := buildSARIF(res)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

type sarifInvocation struct {
	ExecutionSuccessful        bool                `json:"executionSuccessful"`
	ToolExecutionNotifications []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Message    sarifMessage `json:"message"`
	Level      string       `json:"level"`
	Descriptor sarifRef     `json:"descriptor"`
}

type sarifRef struct {
	ID string `json:"id"`
}

func buildSARIF(res *review.AggregateResult) sarifLog {
	var rules []sarifRule
	seen := make(map[string]bool)
	for _, sr := range res.Results {
		if seen[sr.StepID] || sr.StepID == "" {
			continue
		}
		seen[sr.StepID] = true
		name := sr.StepName
		if name == "" {
			name = sr.StepID
		}
		rules = append(rules, sarifRule{
			ID:               sr.StepID,
			Name:             name,
			ShortDescription: sarifMessage{Text: name},
			DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(sr.Severity)},
			Properties:       sarifRuleProperties{Tags: []string{string(sr.Category)}},
		})
	}

	results := []sarifResult{}
	for _, is := range flatten(res) {
		result := sarifResult{
			RuleID:  is.StepID,
			Level:   severityToLevel(is.Severity),
			Message: sarifMessage{Text: is.Message},
		}
		if is.FilePath != "" {
			result.Locations = []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: is.FilePath},
					Region:           sarifRegion{StartLine: max(is.Line, 1), StartColumn: is.Column},
				},
			}}
		}
		fix := is.Recommendation
		if is.HasFix() {
			fix = "Replace with: " + is.SuggestedCode
		}
		if fix != "" {
			result.Fixes = []sarifFix{{Description: sarifMessage{Text: fix}}}
		}
		results = append(results, result)
	}

	inv := sarifInvocation{ExecutionSuccessful: res.Status != review.StatusError}
	for _, sr := range failedSteps(res) {
		inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications, sarifNotification{
			Message:    sarifMessage{Text: sr.Message},
			Level:      "error",
			Descriptor: sarifRef{ID: sr.StepID},
		})
	}

	tool := res.Tool
	if tool == "" {
		tool = "vaahai"
	}
	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           tool,
						Version:        res.Version,
						InformationURI: "https://github.com/dshills/vaahai",
						Rules:          rules,
					},
				},
				Results:     results,
				Invocations: []sarifInvocation{inv},
			},
		},
	}
}

// severityToLevel maps vaahai severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
