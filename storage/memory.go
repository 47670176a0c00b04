package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory keeps files in process memory. Useful for tests and throwaway dev servers.
type Memory struct {
	baseURL string

	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty Memory storage.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, files: make(map[string][]byte)}
}

// Save stores the content of r.
func (s *Memory) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("storage: read content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := name
	for {
		if _, taken := s.files[candidate]; !taken {
			break
		}
		candidate = AlternativeName(name)
	}
	s.files[candidate] = data
	return candidate, nil
}

// Open returns a reader over a stored file.
func (s *Memory) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.files[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// URL returns BaseURL + name.
func (s *Memory) URL(name string) string { return joinURL(s.baseURL, name) }

// Delete removes a stored file.
func (s *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	delete(s.files, name)
	return nil
}

// Len returns the number of stored files.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
