// Package local provides a local filesystem blob backend.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filevault/filevault/internal/metrics"
)

// LocalBackend stores each blob as one file under a root directory.
type LocalBackend struct {
	rootPath string
}

// New creates a local backend, creating rootPath if needed.
func New(rootPath string) (*LocalBackend, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("root path is required")
	}
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("creating root path %s: %w", rootPath, err)
	}
	return &LocalBackend{rootPath: rootPath}, nil
}

func (b *LocalBackend) fullPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.rootPath, key), nil
}

// PutObject writes body to a temp file and renames it into place.
func (b *LocalBackend) PutObject(_ context.Context, key string, body io.Reader, _ int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordBlobOperation(b.Type(), "put", time.Since(start), err == nil) }()

	path, err := b.fullPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.rootPath, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	return nil
}

// GetObject opens the blob for reading.
func (b *LocalBackend) GetObject(_ context.Context, key string) (rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() { metrics.RecordBlobOperation(b.Type(), "get", time.Since(start), err == nil) }()

	path, err := b.fullPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// DeleteObject removes the blob if it exists.
func (b *LocalBackend) DeleteObject(_ context.Context, key string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordBlobOperation(b.Type(), "delete", time.Since(start), err == nil) }()

	path, err := b.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Type returns "local".
func (b *LocalBackend) Type() string { return "local" }

// Close is a no-op.
func (b *LocalBackend) Close() error { return nil }
