package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config is read from when --config is not given.
var DefaultPath = filepath.Join("config", "config.yml")

const (
	DefaultLogRoot    = "log_directory"
	DefaultOutputRoot = "output"
	DefaultMode       = "date"
	DefaultAnomalyKey = "random_key"
	DefaultLogFile    = "log/logsheet.log"

	thresholdKey = "processing_time_threshold_seconds"
)

// Config holds logsheet configuration loaded from config.yml.
type Config struct {
	Targets    []string `yaml:"targets"`
	Threshold  *Seconds `yaml:"processing_time_threshold_seconds"`
	AnomalyKey string   `yaml:"anomaly_key"`
	LogRoot    string   `yaml:"log_root"`
	OutputRoot string   `yaml:"output_root"`
	Mode       string   `yaml:"mode"`
	Log        Log      `yaml:"log"`
}

// Log configures the run log.
type Log struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Level      string `yaml:"level"`
}

// Error reports an unusable configuration file or value.
type Error struct {
	Path string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s: invalid value for %q: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads and validates the config at path. A missing file is an error:
// the processing-time threshold has no default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, &Error{Path: path, Err: errors.New("configuration file not found")}
		}
		return Config{}, &Error{Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		var cErr *Error
		if errors.As(err, &cErr) {
			cErr.Path = path
			return Config{}, cErr
		}
		return Config{}, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	if err := cfg.validate(); err != nil {
		err.Path = path
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Seconds is a whole number of seconds. Decoding rejects anything that is
// not a YAML integer, including floats such as 4.0.
type Seconds int

// UnmarshalYAML accepts only integer scalars and reports anything else as an
// *Error for the threshold key.
func (s *Seconds) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return &Error{Key: thresholdKey, Err: fmt.Errorf("must be an integer, got %q", n.Value)}
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return &Error{Key: thresholdKey, Err: err}
	}
	*s = Seconds(v)
	return nil
}

// ThresholdSeconds returns the validated processing-time threshold.
func (c Config) ThresholdSeconds() int {
	if c.Threshold == nil {
		return 0
	}
	return int(*c.Threshold)
}

func (c *Config) validate() *Error {
	if c.Threshold == nil {
		return &Error{Key: thresholdKey, Err: errors.New("missing; an integer number of seconds is required")}
	}
	if *c.Threshold <= 0 {
		return &Error{Key: thresholdKey, Err: fmt.Errorf("must be positive, got %d", *c.Threshold)}
	}
	switch c.Mode {
	case "", "date", "host", "date-prefix":
	default:
		return &Error{Key: "mode", Err: fmt.Errorf("unknown mode %q (use date, host or date-prefix)", c.Mode)}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AnomalyKey == "" {
		c.AnomalyKey = DefaultAnomalyKey
	}
	if c.LogRoot == "" {
		c.LogRoot = DefaultLogRoot
	}
	if c.OutputRoot == "" {
		c.OutputRoot = DefaultOutputRoot
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 3
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 2
	}
}
