// Package config loads kinmark's TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config holds the engine and CLI settings.
type Config struct {
	// Collection is the path to the collection database.
	Collection string `toml:"collection"`

	// MinGapDays is the minimum gap the due-date spreader enforces
	// between sibling due dates.
	MinGapDays int `toml:"min_gap_days"`

	// AnswerPushDays is the fixed offset the per-answer reschedule
	// pushes due siblings out by.
	AnswerPushDays int `toml:"answer_push_days"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Collection:     "kinmark.db",
		MinGapDays:     1,
		AnswerPushDays: 1,
	}
}

// Load reads the configuration file at path, applying defaults for
// unset fields. A missing file yields the defaults; a malformed file is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MinGapDays < 1 {
		cfg.MinGapDays = 1
	}
	if cfg.AnswerPushDays < 1 {
		cfg.AnswerPushDays = 1
	}
	return cfg, nil
}

// WriteSample writes the annotated sample configuration to path.
// Refuses to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
