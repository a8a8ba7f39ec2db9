package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/vaahai/internal/cache"
	"github.com/dshills/vaahai/internal/config"
	"github.com/dshills/vaahai/internal/logging"
	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/runner"
	"github.com/dshills/vaahai/internal/steps"
)

// env is the loaded configuration plus the objects built from it.
type env struct {
	cfg      config.Config
	logger   *log.Logger
	registry *steps.Registry
	rules    *review.Rules
}

func loadEnv(overrides map[string]string) (*env, error) {
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger := logging.New(os.Stderr, level)

	reg := steps.DefaultRegistry(logger)
	if dir := cfg.Steps.PatternsDir; dir != "" {
		defs, err := steps.LoadPatternDir(expandHome(dir))
		if err != nil {
			return nil, fmt.Errorf("loading pattern steps: %w", err)
		}
		steps.RegisterAll(reg, defs)
		logger.Debug("loaded pattern steps", "dir", dir, "count", len(defs))
	}

	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	if len(cfg.Steps.Disabled) > 0 {
		if rules == nil {
			rules = &review.Rules{}
		}
		rules.Disabled = append(rules.Disabled, cfg.Steps.Disabled...)
	}

	return &env{cfg: cfg, logger: logger, registry: reg, rules: rules}, nil
}

// newRunner resolves the configured steps. explicit, when non-empty,
// names the steps to run and bypasses the category/severity/tag filter.
func (e *env) newRunner(explicit []string, noCache bool) (*runner.Runner, error) {
	opts := runner.Options{
		Logger:      e.logger,
		Rules:       e.rules,
		MaxFindings: e.cfg.MaxFindings,
		SkipPaths:   e.cfg.Privacy.SkipPaths,
		Version:     version,
	}
	if e.cfg.Cache.Enabled && !noCache {
		c, err := cache.New(true, expandHome(e.cfg.Cache.Dir), e.cfg.Cache.TTLSeconds)
		if err != nil {
			e.logger.Warn("cache disabled", "err", err)
		} else {
			opts.Cache = c
		}
	}
	configs := stepConfigs(e.cfg.Steps)
	opts.Configs = configs

	if len(explicit) > 0 {
		list := make([]steps.Step, 0, len(explicit))
		for _, id := range explicit {
			s, err := e.registry.Resolve(id, configs[id])
			if err != nil {
				return nil, err
			}
			list = append(list, s)
		}
		return runner.New(list, opts), nil
	}

	crits, err := stepCriteria(e.cfg.Steps)
	if err != nil {
		return nil, err
	}
	return runner.NewFromCriteria(e.registry, crits, configs, opts), nil
}

// stepCriteria expands the category and severity lists into one criterion
// per combination, each carrying the tag filter.
func stepCriteria(sc config.StepsConfig) ([]steps.Criteria, error) {
	cats := []review.Category{""}
	if len(sc.Categories) > 0 {
		cats = cats[:0]
		for _, c := range sc.Categories {
			cats = append(cats, review.Category(strings.ToLower(c)))
		}
	}
	sevs := []review.Severity{""}
	if len(sc.Severities) > 0 {
		sevs = sevs[:0]
		for _, s := range sc.Severities {
			sev, ok := review.ParseSeverity(s)
			if !ok {
				return nil, fmt.Errorf("unknown severity %q", s)
			}
			sevs = append(sevs, sev)
		}
	}
	var out []steps.Criteria
	for _, c := range cats {
		for _, s := range sevs {
			out = append(out, steps.Criteria{Category: c, Severity: s, Tags: sc.Tags})
		}
	}
	return out, nil
}

func stepConfigs(sc config.StepsConfig) map[string]steps.Config {
	out := make(map[string]steps.Config, len(sc.Settings))
	for id, m := range sc.Settings {
		out[id] = steps.Config(m)
	}
	return out
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
