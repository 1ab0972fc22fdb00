package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eth2030/rpcbridge/log"
)

// Configuration errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// maxWorkers bounds batch.workers.
const maxWorkers = 1024

// Config is the rpcbridge YAML config file.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Batch  BatchConfig  `yaml:"batch"`
	Output OutputConfig `yaml:"output"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BatchConfig controls batch conversion.
type BatchConfig struct {
	// Workers is the number of conversions run at once.
	Workers int `yaml:"workers"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Pretty bool `yaml:"pretty"`
}

// DefaultConfig returns the config used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Log:   LogConfig{Level: "info", Format: string(log.FormatJSON)},
		Batch: BatchConfig{Workers: 8},
	}
}

// LoadConfig reads configuration from a YAML file path with defaults applied
// to any unspecified fields. If path is empty, returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		MergeDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	MergeDefaults(cfg)
	return cfg, nil
}

// MergeDefaults fills in any zero-valued fields in cfg.
func MergeDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = defaults.Batch.Workers
	}
}

// ValidateConfig checks cfg and returns an error describing the first
// problem found.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := log.ParseFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Batch.Workers < 1 || cfg.Batch.Workers > maxWorkers {
		return fmt.Errorf("%w: batch.workers must be between 1 and %d, got %d",
			ErrInvalidConfig, maxWorkers, cfg.Batch.Workers)
	}
	return nil
}
