package sqlitestore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evan-idocoding/debugbar/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "media.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	name, err := s.Save(ctx, "debug-toolbar/a.html", strings.NewReader("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "debug-toolbar/a.html", name)
	assert.Equal(t, "/media/debug-toolbar/a.html", s.URL(name))

	again, err := s.Save(ctx, "debug-toolbar/a.html", strings.NewReader("second"))
	require.NoError(t, err)
	assert.NotEqual(t, name, again)

	rc, err := s.Open(ctx, name)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(b))

	require.NoError(t, s.Delete(ctx, name))
	_, err = s.Open(ctx, name)
	assert.ErrorIs(t, err, storage.ErrNotExist)
	assert.ErrorIs(t, s.Delete(ctx, name), storage.ErrNotExist)
}

func TestStore_RegisteredBackend(t *testing.T) {
	s, err := storage.New("sqlite", storage.Options{Root: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.(*Store).Close() })

	_, err = s.Save(context.Background(), "../escape", strings.NewReader("x"))
	assert.ErrorIs(t, err, storage.ErrInvalidName)
}
