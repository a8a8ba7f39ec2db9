package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the vaahai configuration.
type Config struct {
	Format           string                 `yaml:"format" mapstructure:"format"`
	FailOn           string                 `yaml:"failOn" mapstructure:"failOn"`
	MaxFindings      int                    `yaml:"maxFindings" mapstructure:"maxFindings"`
	LogLevel         string                 `yaml:"logLevel" mapstructure:"logLevel"`
	Include          []string               `yaml:"include" mapstructure:"include"`
	Exclude          []string               `yaml:"exclude" mapstructure:"exclude"`
	RulesFile        string                 `yaml:"rulesFile,omitempty" mapstructure:"rulesFile"`
	Steps            StepsConfig            `yaml:"steps" mapstructure:"steps"`
	Walk             WalkConfig             `yaml:"walk" mapstructure:"walk"`
	Cache            CacheConfig            `yaml:"cache" mapstructure:"cache"`
	Privacy          PrivacyConfig          `yaml:"privacy" mapstructure:"privacy"`
	FileModification FileModificationConfig `yaml:"file_modification" mapstructure:"file_modification"`
	History          HistoryConfig          `yaml:"history" mapstructure:"history"`
}

// StepsConfig selects which registered steps run and how they are configured.
type StepsConfig struct {
	Categories  []string                  `yaml:"categories,omitempty" mapstructure:"categories"`
	Severities  []string                  `yaml:"severities,omitempty" mapstructure:"severities"`
	Tags        []string                  `yaml:"tags,omitempty" mapstructure:"tags"`
	Disabled    []string                  `yaml:"disabled,omitempty" mapstructure:"disabled"`
	PatternsDir string                    `yaml:"patternsDir,omitempty" mapstructure:"patternsDir"`
	Settings    map[string]map[string]any `yaml:"settings,omitempty" mapstructure:"settings"`
}

// WalkConfig controls directory traversal.
type WalkConfig struct {
	Extensions  []string `yaml:"extensions" mapstructure:"extensions"`
	ExcludeDirs []string `yaml:"excludeDirs" mapstructure:"excludeDirs"`
	Recursive   bool     `yaml:"recursive" mapstructure:"recursive"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir,omitempty" mapstructure:"dir"`
	TTLSeconds int    `yaml:"ttlSeconds" mapstructure:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" mapstructure:"redactSecrets"`
	SkipPaths     []string `yaml:"skipPaths,omitempty" mapstructure:"skipPaths"`
}

// FileModificationConfig configures the change manager.
type FileModificationConfig struct {
	BackupDir        string `yaml:"backup_dir" mapstructure:"backup_dir"`
	MaxBackupAgeDays int    `yaml:"max_backup_age_days" mapstructure:"max_backup_age_days"`
	ConfirmChanges   bool   `yaml:"confirm_changes" mapstructure:"confirm_changes"`
	DryRun           bool   `yaml:"dry_run" mapstructure:"dry_run"`
	CreateGitCommits bool   `yaml:"create_git_commits" mapstructure:"create_git_commits"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path,omitempty" mapstructure:"path"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:      "text",
		FailOn:      "none",
		MaxFindings: 10,
		LogLevel:    "warn",
		Include:     []string{"**/*"},
		Exclude:     []string{"vendor/**", "**/node_modules/**", "**/dist/**"},
		Walk: WalkConfig{
			Extensions:  []string{".py"},
			ExcludeDirs: []string{"__pycache__", "venv", "node_modules", "build", "dist"},
			Recursive:   true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			SkipPaths:     []string{"**/.env", "**/*secrets*"},
		},
		FileModification: FileModificationConfig{
			BackupDir:        "~/.vaahai/backups",
			MaxBackupAgeDays: 30,
			ConfirmChanges:   true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for vaahai.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vaahai"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "vaahai"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "vaahai"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "vaahai"), nil
	default:
		return filepath.Join(home, ".config", "vaahai"), nil
	}
}

// ConfigPath returns the full path to the config file. VAAHAI_CONFIG
// overrides the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("VAAHAI_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the config to the config file as YAML.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path as YAML.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"format":                            "VAAHAI_FORMAT",
	"failOn":                            "VAAHAI_FAIL_ON",
	"maxFindings":                       "VAAHAI_MAX_FINDINGS",
	"logLevel":                          "VAAHAI_LOG_LEVEL",
	"rulesFile":                         "VAAHAI_RULES_FILE",
	"file_modification.backup_dir":      "VAAHAI_BACKUP_DIR",
	"file_modification.dry_run":         "VAAHAI_DRY_RUN",
	"file_modification.confirm_changes": "VAAHAI_CONFIRM_CHANGES",
	"history.path":                      "VAAHAI_HISTORY_PATH",
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, overrides)
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error.
func LoadFrom(path string, overrides map[string]string) (Config, error) {
	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return Config{}, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every field of cfg as a viper default so that
// keys absent from the file keep their default values.
func setDefaults(v *viper.Viper, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	walkDefaults(v, "", m)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok && len(sub) > 0 {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(cfg, key, value); err != nil {
			return fmt.Errorf("override %s: %w", key, err)
		}
	}
	return nil
}

// Keys lists the keys accepted by SetField.
var Keys = []string{
	"format", "failOn", "maxFindings", "logLevel", "rulesFile",
	"include", "exclude",
	"steps.categories", "steps.severities", "steps.tags", "steps.disabled", "steps.patternsDir",
	"walk.extensions", "walk.excludeDirs", "walk.recursive",
	"cache.enabled", "cache.dir", "cache.ttlSeconds",
	"privacy.redactSecrets", "privacy.skipPaths",
	"file_modification.backup_dir", "file_modification.max_backup_age_days",
	"file_modification.confirm_changes", "file_modification.dry_run",
	"file_modification.create_git_commits",
	"history.enabled", "history.path",
}

// SetField sets a single config field by key name. Returns error if key is unknown.
// List values are comma separated.
func SetField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "maxFindings":
		cfg.MaxFindings, err = parseInt(key, value)
	case "logLevel":
		cfg.LogLevel = value
	case "rulesFile":
		cfg.RulesFile = value
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "steps.categories":
		cfg.Steps.Categories = splitList(value)
	case "steps.severities":
		cfg.Steps.Severities = splitList(value)
	case "steps.tags":
		cfg.Steps.Tags = splitList(value)
	case "steps.disabled":
		cfg.Steps.Disabled = splitList(value)
	case "steps.patternsDir":
		cfg.Steps.PatternsDir = value
	case "walk.extensions":
		cfg.Walk.Extensions = splitList(value)
	case "walk.excludeDirs":
		cfg.Walk.ExcludeDirs = splitList(value)
	case "walk.recursive":
		cfg.Walk.Recursive, err = parseBool(key, value)
	case "cache.enabled":
		cfg.Cache.Enabled, err = parseBool(key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		cfg.Cache.TTLSeconds, err = parseInt(key, value)
	case "privacy.redactSecrets":
		cfg.Privacy.RedactSecrets, err = parseBool(key, value)
	case "privacy.skipPaths":
		cfg.Privacy.SkipPaths = splitList(value)
	case "file_modification.backup_dir":
		cfg.FileModification.BackupDir = value
	case "file_modification.max_backup_age_days":
		cfg.FileModification.MaxBackupAgeDays, err = parseInt(key, value)
	case "file_modification.confirm_changes":
		cfg.FileModification.ConfirmChanges, err = parseBool(key, value)
	case "file_modification.dry_run":
		cfg.FileModification.DryRun, err = parseBool(key, value)
	case "file_modification.create_git_commits":
		cfg.FileModification.CreateGitCommits, err = parseBool(key, value)
	case "history.enabled":
		cfg.History.Enabled, err = parseBool(key, value)
	case "history.path":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

// GetField returns the value of a dotted config key in the string form
// SetField accepts.
func GetField(cfg Config, key string) (string, error) {
	switch key {
	case "format":
		return cfg.Format, nil
	case "failOn":
		return cfg.FailOn, nil
	case "maxFindings":
		return strconv.Itoa(cfg.MaxFindings), nil
	case "logLevel":
		return cfg.LogLevel, nil
	case "rulesFile":
		return cfg.RulesFile, nil
	case "include":
		return strings.Join(cfg.Include, ","), nil
	case "exclude":
		return strings.Join(cfg.Exclude, ","), nil
	case "steps.categories":
		return strings.Join(cfg.Steps.Categories, ","), nil
	case "steps.severities":
		return strings.Join(cfg.Steps.Severities, ","), nil
	case "steps.tags":
		return strings.Join(cfg.Steps.Tags, ","), nil
	case "steps.disabled":
		return strings.Join(cfg.Steps.Disabled, ","), nil
	case "steps.patternsDir":
		return cfg.Steps.PatternsDir, nil
	case "walk.extensions":
		return strings.Join(cfg.Walk.Extensions, ","), nil
	case "walk.excludeDirs":
		return strings.Join(cfg.Walk.ExcludeDirs, ","), nil
	case "walk.recursive":
		return strconv.FormatBool(cfg.Walk.Recursive), nil
	case "cache.enabled":
		return strconv.FormatBool(cfg.Cache.Enabled), nil
	case "cache.dir":
		return cfg.Cache.Dir, nil
	case "cache.ttlSeconds":
		return strconv.Itoa(cfg.Cache.TTLSeconds), nil
	case "privacy.redactSecrets":
		return strconv.FormatBool(cfg.Privacy.RedactSecrets), nil
	case "privacy.skipPaths":
		return strings.Join(cfg.Privacy.SkipPaths, ","), nil
	case "file_modification.backup_dir":
		return cfg.FileModification.BackupDir, nil
	case "file_modification.max_backup_age_days":
		return strconv.Itoa(cfg.FileModification.MaxBackupAgeDays), nil
	case "file_modification.confirm_changes":
		return strconv.FormatBool(cfg.FileModification.ConfirmChanges), nil
	case "file_modification.dry_run":
		return strconv.FormatBool(cfg.FileModification.DryRun), nil
	case "file_modification.create_git_commits":
		return strconv.FormatBool(cfg.FileModification.CreateGitCommits), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
