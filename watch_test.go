package debugbar

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evan-idocoding/debugbar/toolbar"
)

func TestWatchConfig_Reloads(t *testing.T) {
	path := writeFile(t, t.TempDir(), "debugbar.yaml", "debug: false\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	live := toolbar.NewAtomicConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, live, WithTransform(func(c toolbar.Config) toolbar.Config {
			c.ResultsStoreSize = 99
			return c
		}))
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// The watcher may not be registered yet; rewrite until the change lands, leaving room for
	// the debounce between writes.
	reloaded := func() bool {
		c := live.Load()
		return c.Debug && c.InsertBefore == "</main>" && c.ResultsStoreSize == 99
	}
	for deadline := time.Now().Add(5 * time.Second); !reloaded(); {
		require.False(t, time.Now().After(deadline), "config was not reloaded")
		require.NoError(t, os.WriteFile(path, []byte("debug: true\ninsert_before: \"</main>\"\n"), 0o644))
		time.Sleep(4 * reloadDebounce)
	}

	// Invalid content keeps the previous configuration.
	require.NoError(t, os.WriteFile(path, []byte("debg: false\n"), 0o644))
	time.Sleep(3 * reloadDebounce)
	require.True(t, live.Load().Debug)
}
