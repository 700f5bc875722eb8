package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads settings from path, chosen by extension (.toml, .yaml,
// .yml). A missing file is not an error: the defaults are returned.
// Fields absent from the file keep their default values.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Unmarshal(data, filepath.Ext(path), &settings); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Default(), fmt.Errorf("config file %s: %w", path, err)
	}
	return settings, nil
}

// Unmarshal decodes settings from data in the format named by ext.
func Unmarshal(data []byte, ext string, settings *Settings) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(data, settings)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, settings)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// DefaultPath returns the conventional config location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "textlens", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "textlens", "config.toml")
}
