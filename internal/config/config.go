package config

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Errors returned by configuration loading and validation.
var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalidSetting    = errors.New("invalid setting")
)

// Settings holds the tunable behavior of the display pipeline and the
// annotation cache.
type Settings struct {
	Editor      EditorSettings     `toml:"editor" yaml:"editor"`
	Buffer      BufferSettings     `toml:"buffer" yaml:"buffer"`
	Annotations AnnotationSettings `toml:"annotations" yaml:"annotations"`
}

// EditorSettings configures the display transformation layers.
type EditorSettings struct {
	// TabSize is the width of a tab stop in columns.
	TabSize int `toml:"tab_size" yaml:"tab_size"`

	// FoldPlaceholder replaces folded regions. Empty collapses folds
	// to zero width; otherwise it must be a single rune.
	FoldPlaceholder string `toml:"fold_placeholder" yaml:"fold_placeholder"`

	// MaxRowBytes caps how many bytes of one buffer line are mapped
	// before the row is truncated with an ellipsis.
	MaxRowBytes int `toml:"max_row_bytes" yaml:"max_row_bytes"`

	// RowCacheSize is the number of rendered rows kept in the LRU
	// row cache.
	RowCacheSize int `toml:"row_cache_size" yaml:"row_cache_size"`
}

// BufferSettings configures buffer edit history.
type BufferSettings struct {
	// HistoryLimit bounds the retained change history used to
	// resolve anchors from older snapshots.
	HistoryLimit int `toml:"history_limit" yaml:"history_limit"`
}

// AnnotationSettings configures the annotation cache.
type AnnotationSettings struct {
	// Enabled toggles annotation fetching.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// DebounceMillis delays refresh after an edit burst.
	DebounceMillis int `toml:"debounce_ms" yaml:"debounce_ms"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Editor: EditorSettings{
			TabSize:         4,
			FoldPlaceholder: "…",
			MaxRowBytes:     4096,
			RowCacheSize:    512,
		},
		Buffer: BufferSettings{
			HistoryLimit: 10000,
		},
		Annotations: AnnotationSettings{
			Enabled:        true,
			DebounceMillis: 250,
		},
	}
}

// Validate checks the settings for out-of-range values.
func (s Settings) Validate() error {
	if s.Editor.TabSize < 1 || s.Editor.TabSize > 16 {
		return fmt.Errorf("%w: editor.tab_size must be in [1,16], got %d", ErrInvalidSetting, s.Editor.TabSize)
	}
	if n := utf8.RuneCountInString(s.Editor.FoldPlaceholder); n > 1 {
		return fmt.Errorf("%w: editor.fold_placeholder must be empty or a single rune, got %q", ErrInvalidSetting, s.Editor.FoldPlaceholder)
	}
	if s.Editor.MaxRowBytes < 16 {
		return fmt.Errorf("%w: editor.max_row_bytes must be at least 16, got %d", ErrInvalidSetting, s.Editor.MaxRowBytes)
	}
	if s.Editor.RowCacheSize < 1 {
		return fmt.Errorf("%w: editor.row_cache_size must be positive, got %d", ErrInvalidSetting, s.Editor.RowCacheSize)
	}
	if s.Buffer.HistoryLimit < 1 {
		return fmt.Errorf("%w: buffer.history_limit must be positive, got %d", ErrInvalidSetting, s.Buffer.HistoryLimit)
	}
	if s.Annotations.DebounceMillis < 0 {
		return fmt.Errorf("%w: annotations.debounce_ms must not be negative, got %d", ErrInvalidSetting, s.Annotations.DebounceMillis)
	}
	return nil
}

// PlaceholderRune returns the fold placeholder as a rune, or zero
// when folds collapse to nothing.
func (s EditorSettings) PlaceholderRune() rune {
	if s.FoldPlaceholder == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.FoldPlaceholder)
	return r
}
