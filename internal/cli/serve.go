package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/config"
	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/metrics"
	"github.com/roach88/arrowpush/internal/render"
	"github.com/roach88/arrowpush/internal/server"
	"github.com/roach88/arrowpush/internal/store"
)

// ServeOptions holds flags for the serve command. Flags that are set
// override the ARROWPUSH_* environment.
type ServeOptions struct {
	*RootOptions
	Addr       string
	DBPath     string
	RulesDir   string
	LogLevel   string
	LogFormat  string
	CORSOrigin string

	// listener replaces binding Addr; set by tests.
	listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API serving /suggest, /render, /rules, /healthz and /metrics.

Configuration comes from ARROWPUSH_* environment variables; flags override
them. When a database is configured every /suggest evaluation is appended
to the audit log.

Example:
  arrowpush serve --addr localhost:8000
  arrowpush serve --db ./arrowpush.db --rules ./rules --log-format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Addr, "addr", "", "listen address (env ARROWPUSH_ADDR)")
	f.StringVar(&opts.DBPath, "db", "", "audit database path (env ARROWPUSH_DB)")
	f.StringVar(&opts.RulesDir, "rules", "", "directory of additional CUE rule files (env ARROWPUSH_RULES_DIR)")
	f.StringVar(&opts.LogLevel, "log-level", "", "debug|info|warn|error (env ARROWPUSH_LOG_LEVEL)")
	f.StringVar(&opts.LogFormat, "log-format", "", "text|json (env ARROWPUSH_LOG_FORMAT)")
	f.StringVar(&opts.CORSOrigin, "cors-origin", "", "Access-Control-Allow-Origin value (env ARROWPUSH_CORS_ORIGIN)")

	return cmd
}

// resolveConfig loads the environment and applies explicitly set flags.
func resolveConfig(opts *ServeOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("addr", &cfg.Addr, opts.Addr)
	override("db", &cfg.DBPath, opts.DBPath)
	override("rules", &cfg.RulesDir, opts.RulesDir)
	override("log-level", &cfg.LogLevel, opts.LogLevel)
	override("log-format", &cfg.LogFormat, opts.LogFormat)
	override("cors-origin", &cfg.CORSOrigin, opts.CORSOrigin)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	m := metrics.New()
	loaded, err := loadEngine(cfg.RulesDir, logger, engine.WithObserver(m))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}
	logger.Info("engine ready",
		"rules", len(loaded.Engine.Rules()),
		"file_rules", loaded.FileRules,
		"library_hash", loaded.Engine.LibraryHash(),
	)

	renderer, err := render.New(cfg.RenderWidth, cfg.RenderHeight)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcOpts := []server.Option{
		server.WithMetrics(m),
		server.WithLogger(logger),
		server.WithCORSOrigin(cfg.CORSOrigin),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}

	if cfg.DBPath != "" {
		logger.Info("opening database", "path", cfg.DBPath)
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		rec, err := store.NewRecorder(ctx, st)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		svcOpts = append(svcOpts, server.WithRecorder(rec))
	}

	svc, err := server.NewService(loaded.Engine, loaded.Molecules, renderer, svcOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create service", err)
	}

	ln := opts.listener
	if ln == nil {
		if ln, err = net.Listen("tcp", cfg.Addr); err != nil {
			return WrapExitError(ExitCommandError, "failed to listen", err)
		}
	}

	logger.Info("server listening", "addr", ln.Addr().String(), "db", cfg.DBPath, "rules_dir", cfg.RulesDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())

	if err := server.Serve(ctx, ln, svc.Handler(), cfg.ShutdownTimeout); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
