// Package sqlitestore provides a SQLite-backed storage.Storage.
//
// Importing the package registers the "sqlite" backend; Options.Root is the database path.
package sqlitestore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/evan-idocoding/debugbar/storage"
	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", func(opts storage.Options) (storage.Storage, error) {
		return Open(opts.Root, opts.BaseURL)
	})
}

const schema = `CREATE TABLE IF NOT EXISTS debugbar_files (
	name       TEXT PRIMARY KEY,
	content    BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Store persists files in a single SQLite table.
type Store struct {
	db      *sql.DB
	baseURL string
}

// Open opens (creating if needed) a SQLite database at path.
func Open(path, baseURL string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitestore: database path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	if baseURL == "" {
		baseURL = storage.DefaultBaseURL
	}
	return &Store{db: db, baseURL: baseURL}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts the content of r. A taken name gets a random suffix.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name, err := storage.CleanName(name)
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: read content: %w", err)
	}
	candidate := name
	for attempt := 0; attempt < 16; attempt++ {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO debugbar_files (name, content, created_at) VALUES (?, ?, ?)`,
			candidate, content, time.Now().UTC().UnixMilli(),
		)
		if err != nil {
			return "", fmt.Errorf("sqlitestore: insert %s: %w", candidate, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("sqlitestore: insert %s: %w", candidate, err)
		}
		if n == 1 {
			return candidate, nil
		}
		candidate = storage.AlternativeName(name)
	}
	return "", fmt.Errorf("sqlitestore: no free name for %s", name)
}

// Open returns the stored content.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := storage.CleanName(name)
	if err != nil {
		return nil, err
	}
	var content []byte
	err = s.db.QueryRowContext(ctx, `SELECT content FROM debugbar_files WHERE name = ?`, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, name)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: select %s: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// URL returns BaseURL + name.
func (s *Store) URL(name string) string {
	base := s.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	name, err := storage.CleanName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM debugbar_files WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotExist, name)
	}
	return nil
}
