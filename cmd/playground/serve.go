package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"patternweb/playground/pkg/app"
	"patternweb/playground/pkg/cli"
	"patternweb/playground/pkg/server"
	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	backend       string
	pattern       string
	watch         bool
	gist          string
	code          string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser playground",
	Long: `Serve the browser playground for one session.

The engine starts initializing immediately. The page can be opened with a
deep link: ?gist=<id> fetches the first file of a gist, ?code=<base64url>
decodes an inline source. Only the first page load resolves a link.

Examples:
  # Start with default config
  playground serve

  # Use the compiled engine module
  playground serve --backend wasm

  # Keep a pattern file on disk in sync with the session
  playground serve --pattern header.pat --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.backend, "backend", "", "override engine backend (wasm, lua)")
	serveCmd.Flags().StringVarP(&serveFlags.pattern, "pattern", "p", "", "pattern file loaded at startup")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the pattern file when it changes")
	serveCmd.Flags().StringVar(&serveFlags.gist, "gist", "", "resolve this gist as the session deep link")
	serveCmd.Flags().StringVar(&serveFlags.code, "code", "", "resolve this base64url source as the session deep link")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.backend != "" {
		cfg.Engine.Backend = serveFlags.backend
	}
	if serveFlags.pattern != "" {
		cfg.Source.PatternFile = serveFlags.pattern
	}
	if serveFlags.watch {
		cfg.Source.Watch = true
	}
	if cfg.Source.Watch && cfg.Source.PatternFile == "" {
		return cli.NewConfigError("watch", "--watch requires --pattern or source.pattern_file")
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log := logger.Slog()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	deepLink := url.Values{}
	if serveFlags.gist != "" {
		deepLink.Set("gist", serveFlags.gist)
	}
	if serveFlags.code != "" {
		deepLink.Set("code", serveFlags.code)
	}

	ctrl, err := app.NewFromConfig(cfg, app.Deps{
		Logger:   log,
		Metrics:  collector,
		Tracer:   tracer,
		DeepLink: deepLink,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		_ = ctrl.Close(context.Background())
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		if err := ctrl.Close(context.Background()); err != nil {
			log.Warn("session close failed", "error", err)
		}
	}()

	srv := server.New(cfg, ctrl, server.Options{
		Logger:  log,
		Metrics: collector,
		Tracer:  tracer,
		Build:   server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})

	fmt.Fprintf(cmd.ErrOrStderr(), "Pattern Playground v%s (%s engine)\n", Version, cfg.Engine.Backend)
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", cfg.Server.ListenAddress)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
