package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotExist is returned by Open and Delete for unknown names.
	ErrNotExist = errors.New("storage: file does not exist")
	// ErrInvalidName is returned for empty, absolute or escaping names.
	ErrInvalidName = errors.New("storage: invalid name")
)

// Storage is a minimal named blob store.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// Save stores the content of r under name and returns the name actually used.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Open returns the content stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// URL returns the retrieval URL for name.
	URL(name string) string
	// Delete removes name.
	Delete(ctx context.Context, name string) error
}

// Options carries backend construction parameters.
type Options struct {
	// Root is a directory for "filesystem" and a database path/DSN for "sqlite".
	Root string
	// BaseURL is the URL prefix names are served under. Default "/media/".
	BaseURL string
}

// DefaultBaseURL is used when Options.BaseURL is empty.
const DefaultBaseURL = "/media/"

// Factory constructs a backend.
type Factory func(opts Options) (Storage, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available by name. It panics on empty names, nil factories and
// duplicates.
func Register(name string, f Factory) {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("storage: Register with empty name")
	}
	if f == nil {
		panic("storage: Register " + name + ": nil factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("storage: Register called twice for " + name)
	}
	registry[name] = f
}

// New constructs the backend registered under name.
func New(name string, opts Options) (Storage, error) {
	registryMu.RLock()
	f, ok := registry[strings.TrimSpace(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %s)", name, strings.Join(Backends(), ", "))
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return f(opts)
}

// Backends lists registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CleanName validates and normalizes a storage name.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

func joinURL(base, name string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}

func init() {
	Register("filesystem", func(opts Options) (Storage, error) { return NewFileSystem(opts.Root, opts.BaseURL) })
	Register("memory", func(opts Options) (Storage, error) { return NewMemory(opts.BaseURL), nil })
}
