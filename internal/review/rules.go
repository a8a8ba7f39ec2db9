package review

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Rules represents a rules pack loaded from --rules. Both YAML and JSON
// files are accepted.
type Rules struct {
	Focus             []string          `yaml:"focus,omitempty" json:"focus,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty" json:"severityOverrides,omitempty"`
	Disabled          []string          `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	for cat, sev := range rules.SeverityOverrides {
		if _, ok := ParseSeverity(sev); !ok {
			return nil, fmt.Errorf("rules file: invalid severity %q for category %q", sev, cat)
		}
	}
	return &rules, nil
}

// AllowsStep reports whether a step with the given id and category survives
// the Disabled and Focus lists.
func (r *Rules) AllowsStep(id string, cat Category) bool {
	if r == nil {
		return true
	}
	if slices.Contains(r.Disabled, id) {
		return false
	}
	if len(r.Focus) > 0 && !slices.Contains(r.Focus, string(cat)) {
		return false
	}
	return true
}

// ApplySeverityOverrides rewrites the severity of issues produced by a step in
// the given category when the rules pack overrides that category.
func ApplySeverityOverrides(issues []Issue, cat Category, rules *Rules) []Issue {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return issues
	}
	override, ok := rules.SeverityOverrides[string(cat)]
	if !ok {
		return issues
	}
	sev, _ := ParseSeverity(override)
	for i := range issues {
		issues[i].Severity = sev
	}
	return issues
}
