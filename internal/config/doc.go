// Package config loads vaahai settings from defaults, an optional YAML,
// JSON or TOML file, VAAHAI_* environment variables and command-line
// overrides, in that order of precedence.
package config
