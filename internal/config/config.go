// Package config loads fuzzkit settings from an optional YAML file, an
// optional .env file and FUZZKIT_* environment variables.
//
// Precedence, lowest first: defaults, config file, environment. Command-line
// flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given explicitly.
const DefaultPath = "fuzzkit.yaml"

// Environment variables.
const (
	EnvLogLevel     = "FUZZKIT_LOG_LEVEL"
	EnvFormat       = "FUZZKIT_FORMAT"
	EnvDB           = "FUZZKIT_DB"
	EnvHistoryLimit = "FUZZKIT_HISTORY_LIMIT"
)

// Config holds CLI settings.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Format is the default output format, text or json.
	Format string `yaml:"format"`

	// DB is the run log path. Empty disables recording for run.
	DB string `yaml:"db"`

	// HistoryLimit is the default number of runs listed by history.
	HistoryLimit int `yaml:"history_limit"`
}

// Load reads settings.
//
// A .env file in the working directory is loaded first if present; it never
// overrides variables that are already set. If path is empty, DefaultPath is
// used and may be absent. An explicit path must exist.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg, err = applyEnv(cfg)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() Config {
	return applyDefaults(Config{})
}

func applyDefaults(cfg Config) Config {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 20
	}
	return cfg
}

func applyEnv(cfg Config) (Config, error) {
	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv(EnvFormat); val != "" {
		cfg.Format = val
	}
	if val := os.Getenv(EnvDB); val != "" {
		cfg.DB = val
	}
	if val := os.Getenv(EnvHistoryLimit); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvHistoryLimit, err)
		}
		cfg.HistoryLimit = n
	}
	return cfg, nil
}

// Validate checks that every setting has an allowed value.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Level returns LogLevel as a slog.Level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
