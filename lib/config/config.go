// Package config loads the behavioral CLI configuration.
//
// Values are layered: defaults, then the YAML file, then BEHAVIORAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "behavioral.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BEHAVIORAL_"

// Config is the complete CLI configuration.
type Config struct {
	Log LogConfig `yaml:"log"`
	// PayloadKey signs command payloads. Empty means a random key per run.
	PayloadKey string `yaml:"payload_key"`
	// SealPayloads encrypts payloads instead of only signing them.
	SealPayloads bool        `yaml:"seal_payloads"`
	Stamp        StampConfig `yaml:"stamp"`
	// Behaviors is the manifest of known behavior definitions.
	Behaviors []Behavior `yaml:"behaviors"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is a slog level name: debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// StampConfig configures static HTML stamping.
type StampConfig struct {
	// Root is the directory the globs are matched against.
	Root string `yaml:"root"`
	// Include lists doublestar patterns of files to stamp.
	Include []string `yaml:"include"`
	// Exclude lists doublestar patterns removed from Include's matches.
	Exclude []string `yaml:"exclude"`
	// Debounce delays re-stamping in watch mode.
	Debounce time.Duration `yaml:"debounce"`
}

// overrides holds the values the environment can set.
type overrides struct {
	LogLevel   string        `env:"LOG_LEVEL"`
	LogFormat  string        `env:"LOG_FORMAT"`
	PayloadKey string        `env:"PAYLOAD_KEY"`
	Root       string        `env:"ROOT"`
	Include    []string      `env:"INCLUDE" envSeparator:","`
	Exclude    []string      `env:"EXCLUDE" envSeparator:","`
	Debounce   time.Duration `env:"DEBOUNCE"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Stamp: StampConfig{
			Root:     ".",
			Include:  []string{"**/*.html"},
			Exclude:  []string{"**/node_modules/**", "**/.*/**"},
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads DefaultFile if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides c with any BEHAVIORAL_* variables that are set.
func (c *Config) ApplyEnv() error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Log.Format = o.LogFormat
	}
	if o.PayloadKey != "" {
		c.PayloadKey = o.PayloadKey
	}
	if o.Root != "" {
		c.Stamp.Root = o.Root
	}
	if len(o.Include) > 0 {
		c.Stamp.Include = o.Include
	}
	if len(o.Exclude) > 0 {
		c.Stamp.Exclude = o.Exclude
	}
	if o.Debounce != 0 {
		c.Stamp.Debounce = o.Debounce
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Stamp.Root == "" {
		return fmt.Errorf("stamp.root is required")
	}
	if len(c.Stamp.Include) == 0 {
		return fmt.Errorf("stamp.include must list at least one pattern")
	}
	if c.Stamp.Debounce < 0 {
		return fmt.Errorf("stamp.debounce must not be negative")
	}

	seen := make(map[string]bool, len(c.Behaviors))
	for _, b := range c.Behaviors {
		if seen[b.Name] {
			return fmt.Errorf("behaviors: %q listed twice", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// Level parses Log.Level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// PayloadKeyBytes returns the payload key, or nil when none is configured.
func (c *Config) PayloadKeyBytes() []byte {
	if c.PayloadKey == "" {
		return nil
	}
	return []byte(c.PayloadKey)
}
