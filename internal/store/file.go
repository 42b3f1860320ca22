package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// File keeps one file per key inside a directory.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a File store rooted at dir, creating the directory if needed.
// If dir is empty, it defaults to ~/.cache/vakit/.
func NewFile(dir string) (*File, error) {
	dir, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func resolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "vakit"), nil
}

// Dir returns the directory the store writes to.
func (f *File) Dir() string { return f.dir }

func (f *File) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, wrapErr(BackendFile, "get", key, err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, wrapErr(BackendFile, "get", key, err)
}

// Set writes to a temp file and renames it over the old value so readers
// never observe a partial record.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return wrapErr(BackendFile, "set", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return wrapErr(BackendFile, "set", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return wrapErr(BackendFile, "set", key, err)
	}
	if err := tmp.Close(); err != nil {
		return wrapErr(BackendFile, "set", key, err)
	}
	return wrapErr(BackendFile, "set", key, os.Rename(tmp.Name(), path))
}

func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return wrapErr(BackendFile, "delete", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return wrapErr(BackendFile, "delete", key, err)
}

func (f *File) Close() error { return nil }
