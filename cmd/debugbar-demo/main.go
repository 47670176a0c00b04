// Command debugbar-demo serves a small application with the debug toolbar enabled.
//
//	debugbar-demo --addr 127.0.0.1:8080 --config debugbar.yaml
//
// Pages:
//   - /             HTML page, toolbar inserted
//   - /items/{id}   HTML page with a path wildcard (see the request panel)
//   - /api/items    JSON, toolbar stored and announced via X-Debug-URI when enabled
//   - /stream       flushed HTML, never spliced
//   - /gzip         gzip-encoded HTML, never spliced
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evan-idocoding/debugbar"
	"github.com/evan-idocoding/debugbar/panels"
	_ "github.com/evan-idocoding/debugbar/storage/sqlitestore"
	"github.com/evan-idocoding/debugbar/toolbar"
)

type options struct {
	addr           string
	configPath     string
	debug          bool
	debugURIHeader bool
	storage        string
	storageRoot    string
	trustedProxies []string
	shutdown       time.Duration
}

func main() {
	var opts options
	rootCmd := &cobra.Command{
		Use:   "debugbar-demo",
		Short: "Serve a demo application with the debug toolbar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.addr, "addr", "127.0.0.1:8080", "HTTP listen address")
	f.StringVarP(&opts.configPath, "config", "f", "", "Path to YAML config file (reloaded on change)")
	f.BoolVar(&opts.debug, "debug", true, "Show the toolbar (overrides the config file)")
	f.BoolVar(&opts.debugURIHeader, "debug-uri-header", true, "Store toolbars of non-HTML responses and announce them via X-Debug-URI")
	f.StringVar(&opts.storage, "storage", "", "Storage backend: filesystem, memory or sqlite")
	f.StringVar(&opts.storageRoot, "storage-root", "", "Storage root directory or sqlite database path")
	f.StringSliceVar(&opts.trustedProxies, "trusted-proxies", nil, "Proxies whose X-Forwarded-For is trusted (comma-separated CIDRs/IPs)")
	f.DurationVar(&opts.shutdown, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	logger := slog.New(panels.NewLogHandler(slog.NewTextHandler(os.Stderr, nil)))
	slog.SetDefault(logger)

	cfg, err := debugbar.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	override := func(c toolbar.Config) toolbar.Config {
		if flags.Changed("debug") || opts.configPath == "" {
			c.Debug = opts.debug
		}
		if flags.Changed("debug-uri-header") || opts.configPath == "" {
			c.DebugURIHeader = opts.debugURIHeader
		}
		if opts.storage != "" {
			c.DebugURIStorage = opts.storage
		}
		if opts.storageRoot != "" {
			c.StorageRoot = opts.storageRoot
		}
		return c
	}
	cfg = override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	live := toolbar.NewAtomicConfig(cfg)

	app := newApp(logger)
	bar := debugbar.New(app, debugbar.Spec{
		Config:         live,
		Mux:            app,
		TrustedProxies: opts.trustedProxies,
		Logger:         logger,
	})
	defer bar.Close()

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           bar,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("debugbar-demo: listening", slog.String("addr", opts.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if opts.configPath != "" {
		g.Go(func() error {
			return debugbar.WatchConfig(gctx, opts.configPath, live,
				debugbar.WithWatchLogger(logger),
				debugbar.WithTransform(override),
			)
		})
	}
	return g.Wait()
}
