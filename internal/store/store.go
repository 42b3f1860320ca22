// Package store is the durable key-value layer. Values are opaque bytes and
// every write replaces the whole value; concurrent writers race and the last
// one wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("key not found")

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the valid backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Dir is the directory for the file backend (and the default parent of
	// the sqlite database). Empty means ~/.cache/vakit.
	Dir string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OpError records which backend operation failed on which key.
type OpError struct {
	Op      string
	Backend string
	Key     string
	Err     error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapErr(backend, op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &OpError{Op: op, Backend: backend, Key: key, Err: err}
}

// Open returns the backend named by opts.Backend; empty means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFile(opts.Dir)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			dir, err := resolveDir(opts.Dir)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cannot create store directory %s: %w", dir, err)
			}
			path = filepath.Join(dir, "vakit.db")
		}
		return OpenSQLite(ctx, path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q (valid: file, sqlite, redis, memory)", opts.Backend)
}
