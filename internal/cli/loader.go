package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/arrowpush/internal/config"
	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/rules"
)

// newLogger builds a slog logger writing to w. verbose forces debug level.
func newLogger(w io.Writer, format, level string, verbose bool) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case config.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	case config.LogFormatText, "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want %q or %q", format, config.LogFormatText, config.LogFormatJSON)
	}
}

// commandLogger is the logger for one-shot commands: text to stderr, warn
// level unless --verbose.
func commandLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logger, _ := newLogger(w, config.LogFormatText, "warn", opts.Verbose)
	return logger
}

// loadedEngine bundles what commands need to evaluate and render.
type loadedEngine struct {
	Molecules *molecule.Service
	Engine    *engine.Engine

	// FileRules is the number of rules loaded from the rules directory.
	FileRules int
}

// loadEngine builds the built-in library, appends the rules of rulesDir
// (if set), and constructs a frozen engine over it. Any rule error is
// fatal.
func loadEngine(rulesDir string, logger *slog.Logger, opts ...engine.EngineOption) (*loadedEngine, error) {
	mols := molecule.NewService()

	lib, err := rules.Default(mols)
	if err != nil {
		return nil, fmt.Errorf("load built-in rules: %w", err)
	}

	loaded := 0
	if rulesDir != "" {
		if loaded, err = rules.LoadDir(rulesDir, lib); err != nil {
			return nil, fmt.Errorf("load rules from %s: %w", rulesDir, err)
		}
		logger.Info("rules loaded", "dir", rulesDir, "rules", loaded)
	}

	eng, err := engine.New(lib, mols, append([]engine.EngineOption{engine.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return &loadedEngine{Molecules: mols, Engine: eng, FileRules: loaded}, nil
}
