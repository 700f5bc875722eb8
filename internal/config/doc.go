// Package config loads textlens settings from TOML or YAML files,
// with validation, defaults, and live reload on file change.
package config
