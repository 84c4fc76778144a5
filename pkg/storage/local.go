package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local writes objects into a directory tree mirroring the canonical
// storage layout. Used by the local-output mode.
type Local struct {
	root string
}

// NewLocal creates a local store rooted at dir, creating it as needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBucketAccess, err)
	}

	return &Local{root: dir}, nil
}

// Put implements Store.
func (l *Local) Put(_ context.Context, key string, body io.Reader, size int64, _ string) error {
	target := filepath.Join(l.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}

	written, err := io.Copy(f, body)
	if err != nil {
		f.Close()

		return fmt.Errorf("write object %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}

	if size >= 0 && written != size {
		return fmt.Errorf("write object %s: wrote %d of %d bytes", key, written, size)
	}

	return nil
}

// Get implements Store.
func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
		}

		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	return data, nil
}

// Head implements Store.
func (l *Local) Head(_ context.Context, key string) error {
	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, key)
		}

		return fmt.Errorf("stat object %s: %w", key, err)
	}

	return nil
}

// Description implements Store.
func (l *Local) Description() string {
	return "local:" + l.root
}
