package debugbar

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evan-idocoding/debugbar/toolbar"
)

const reloadDebounce = 100 * time.Millisecond

// WatchOption configures WatchConfig.
type WatchOption func(*watchConfig)

type watchConfig struct {
	logger    *slog.Logger
	transform func(toolbar.Config) toolbar.Config
}

// WithWatchLogger sets the logger. Default: slog.Default().
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = l }
}

// WithTransform applies fn to every reloaded configuration before it is validated and stored,
// e.g. to keep command line overrides.
func WithTransform(fn func(toolbar.Config) toolbar.Config) WatchOption {
	return func(c *watchConfig) { c.transform = fn }
}

// WatchConfig reloads the configuration file at path into dst whenever it changes, until ctx
// is done. Invalid files are logged and the previous configuration stays in effect.
//
// The parent directory is watched, so editors that replace the file on save are handled.
func WatchConfig(ctx context.Context, path string, dst *toolbar.AtomicConfig, opts ...WatchOption) error {
	if dst == nil {
		panic("debugbar: WatchConfig with nil AtomicConfig")
	}
	wc := watchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&wc)
		}
	}
	logger := wc.logger
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("debugbar: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("debugbar: watch %s: %w", path, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("debugbar: watch %s: %w", path, err)
	}

	reload := func() {
		cfg, err := LoadConfig(abs)
		if err == nil && wc.transform != nil {
			cfg = wc.transform(cfg)
			err = cfg.Validate()
		}
		if err != nil {
			logger.WarnContext(ctx, "debugbar: config reload failed", slog.String("path", abs), slog.Any("err", err))
			return
		}
		dst.Store(cfg)
		logger.InfoContext(ctx, "debugbar: config reloaded", slog.String("path", abs))
	}

	// A stopped timer; events re-arm it so bursts of writes cause one reload.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "debugbar: config watcher error", slog.Any("err", err))
		case <-timer.C:
			reload()
		}
	}
}
