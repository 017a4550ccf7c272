// Package config loads arrowpush runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config controls the HTTP service, the audit log and rendering.
//
// Values come from ARROWPUSH_* environment variables; command-line flags
// override them after parsing.
type Config struct {
	Addr            string        `env:"ARROWPUSH_ADDR"             envDefault:"localhost:8000"`
	DBPath          string        `env:"ARROWPUSH_DB"`
	RulesDir        string        `env:"ARROWPUSH_RULES_DIR"`
	LogLevel        string        `env:"ARROWPUSH_LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"ARROWPUSH_LOG_FORMAT"       envDefault:"text"`
	RenderWidth     int           `env:"ARROWPUSH_RENDER_WIDTH"     envDefault:"350"`
	RenderHeight    int           `env:"ARROWPUSH_RENDER_HEIGHT"    envDefault:"250"`
	MaxBodyBytes    int64         `env:"ARROWPUSH_MAX_BODY_BYTES"   envDefault:"1048576"`
	CORSOrigin      string        `env:"ARROWPUSH_CORS_ORIGIN"      envDefault:"*"`
	ShutdownTimeout time.Duration `env:"ARROWPUSH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads the environment into a Config without validating it, for
// callers that apply overrides first.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	var cfg Config
	// Defaults only; a parse error here would mean a bad envDefault tag.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Validate checks that every value is usable. All problems are reported.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("log format %q: want %q or %q", c.LogFormat, LogFormatText, LogFormatJSON))
	}
	if c.RenderWidth < 50 || c.RenderWidth > 4096 {
		errs = append(errs, fmt.Errorf("render width %d outside [50, 4096]", c.RenderWidth))
	}
	if c.RenderHeight < 50 || c.RenderHeight > 4096 {
		errs = append(errs, fmt.Errorf("render height %d outside [50, 4096]", c.RenderHeight))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}
