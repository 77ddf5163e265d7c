// Package config loads the engine configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hed1ad/godriftml/pkg/detectors"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// Config is the file-level configuration. Unknown keys in the file are
// ignored.
type Config struct {
	Detection detectors.Config `yaml:"detection"`
	Store     StoreConfig      `yaml:"store"`
	Log       LogConfig        `yaml:"log"`
}

// StoreConfig configures the profile store.
type StoreConfig struct {
	// Capacity bounds each source's profile history.
	Capacity int `yaml:"capacity"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Detection: detectors.DefaultConfig(),
		Store:     StoreConfig{Capacity: profile.DefaultCapacity},
		Log:       LogConfig{Level: "info"},
	}
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Detection.ZScoreThreshold == 0 {
		c.Detection.ZScoreThreshold = def.Detection.ZScoreThreshold
	}
	if c.Detection.NullRateThreshold == 0 {
		c.Detection.NullRateThreshold = def.Detection.NullRateThreshold
	}
	if c.Detection.IsolationContamination == 0 {
		c.Detection.IsolationContamination = def.Detection.IsolationContamination
	}
	if c.Detection.MinHistoryForDrift == 0 {
		c.Detection.MinHistoryForDrift = def.Detection.MinHistoryForDrift
	}
	if c.Store.Capacity == 0 {
		c.Store.Capacity = def.Store.Capacity
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Detection.ZScoreThreshold < 0 {
		return fmt.Errorf("config: z_score_threshold must be >= 0")
	}
	if c.Detection.NullRateThreshold < 0 || c.Detection.NullRateThreshold > 1 {
		return fmt.Errorf("config: null_rate_threshold must be in [0, 1]")
	}
	if c.Detection.IsolationContamination < 0 || c.Detection.IsolationContamination >= 1 {
		return fmt.Errorf("config: isolation_contamination must be in [0, 1)")
	}
	if c.Detection.MinHistoryForDrift < 1 {
		return fmt.Errorf("config: min_history_for_drift must be >= 1")
	}
	if c.Store.Capacity < 1 {
		return fmt.Errorf("config: store capacity must be >= 1")
	}
	return nil
}

// Load reads a YAML config file, applies defaults and validates. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
