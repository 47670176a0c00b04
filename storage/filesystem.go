package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem stores files below a root directory.
type FileSystem struct {
	root    string
	baseURL string
}

// NewFileSystem returns a FileSystem rooted at root. The directory is created on first save.
func NewFileSystem(root, baseURL string) (*FileSystem, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: filesystem root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &FileSystem{root: abs, baseURL: baseURL}, nil
}

// Root returns the absolute root directory.
func (s *FileSystem) Root() string { return s.root }

// Save writes r to a file. If name is taken, a random suffix is added before the extension.
func (s *FileSystem) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, filepath.FromSlash(path.Dir(name)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	var f *os.File
	candidate := name
	for attempt := 0; ; attempt++ {
		f, err = os.OpenFile(s.path(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || attempt >= 16 {
			return "", fmt.Errorf("storage: create %s: %w", candidate, err)
		}
		candidate = AlternativeName(name)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: write %s: %w", candidate, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", candidate, err)
	}
	return candidate, nil
}

// Open opens a stored file.
func (s *FileSystem) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	return f, nil
}

// URL returns BaseURL + name.
func (s *FileSystem) URL(name string) string { return joinURL(s.baseURL, name) }

// Delete removes a stored file.
func (s *FileSystem) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return err
}

func (s *FileSystem) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AlternativeName returns name with a random 7-character suffix before its extension.
func AlternativeName(name string) string {
	ext := path.Ext(name)
	var b [7]byte
	_, _ = rand.Read(b[:])
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return strings.TrimSuffix(name, ext) + "_" + string(b[:]) + ext
}
