package steps

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/vaahai/internal/review"
)

// PatternDefinition is the YAML shape of a custom pattern step.
type PatternDefinition struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Category    review.Category `yaml:"category"`
	Severity    review.Severity `yaml:"severity"`
	Tags        []string        `yaml:"tags"`
	Disabled    bool            `yaml:"disabled"`
	Rules       []PatternRule   `yaml:"rules"`
}

// PatternRule is the YAML shape of one Rule.
type PatternRule struct {
	Pattern        string          `yaml:"pattern"`
	Message        string          `yaml:"message"`
	Recommendation string          `yaml:"recommendation"`
	Severity       review.Severity `yaml:"severity"`
	Replace        *string         `yaml:"replace"`
}

// ParsePatternYAML decodes and validates a single pattern definition.
func ParsePatternYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("pattern: definition payload is empty")
	}
	var pd PatternDefinition
	if err := yaml.Unmarshal(data, &pd); err != nil {
		return Definition{}, fmt.Errorf("pattern: decode definition: %w", err)
	}
	return pd.Compile()
}

// Compile validates pd and turns it into a registrable Definition.
func (pd PatternDefinition) Compile() (Definition, error) {
	if strings.TrimSpace(pd.ID) == "" {
		return Definition{}, fmt.Errorf("pattern: id is required")
	}
	if len(pd.Rules) == 0 {
		return Definition{}, fmt.Errorf("pattern %s: at least one rule is required", pd.ID)
	}
	sev := review.SeverityMedium
	if pd.Severity != "" {
		s, ok := review.ParseSeverity(string(pd.Severity))
		if !ok {
			return Definition{}, fmt.Errorf("pattern %s: invalid severity %q", pd.ID, pd.Severity)
		}
		sev = s
	}
	cat := pd.Category
	if cat == "" {
		cat = review.CategoryBestPractice
	}
	name := pd.Name
	if name == "" {
		name = pd.ID
	}

	rules := make([]Rule, 0, len(pd.Rules))
	for i, pr := range pd.Rules {
		re, err := regexp.Compile(pr.Pattern)
		if err != nil {
			return Definition{}, fmt.Errorf("pattern %s: rule %d: %w", pd.ID, i, err)
		}
		if pr.Message == "" {
			return Definition{}, fmt.Errorf("pattern %s: rule %d: message is required", pd.ID, i)
		}
		rule := Rule{Pattern: re, Message: pr.Message, Recommendation: pr.Recommendation, Replace: pr.Replace}
		if pr.Severity != "" {
			s, ok := review.ParseSeverity(string(pr.Severity))
			if !ok {
				return Definition{}, fmt.Errorf("pattern %s: rule %d: invalid severity %q", pd.ID, i, pr.Severity)
			}
			rule.Severity = s
		}
		rules = append(rules, rule)
	}

	info := Info{
		ID:          pd.ID,
		Name:        name,
		Description: pd.Description,
		Category:    cat,
		Severity:    sev,
		Tags:        append([]string{"custom"}, pd.Tags...),
		Enabled:     !pd.Disabled,
	}
	return Definition{
		Info: info,
		New: func(Config) (Step, error) {
			return NewPatternStep(info, rules...), nil
		},
	}, nil
}

// LoadPatternDir scans dir for *.yaml and *.yml pattern definitions, sorted
// by file name. A missing directory yields no definitions.
func LoadPatternDir(dir string) ([]Definition, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("pattern: read %s: %w", trimmed, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var defs []Definition
	for _, name := range names {
		path := filepath.Join(trimmed, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("pattern: read %s: %w", path, err)
		}
		def, err := ParsePatternYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// RegisterAll installs defs into r.
func RegisterAll(r *Registry, defs []Definition) {
	for _, def := range defs {
		r.Register(def.Info.ID, def)
	}
}
