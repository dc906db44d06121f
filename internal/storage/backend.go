package storage

import (
	"context"
	"errors"
	"io"
)

// Backend is the interface for blob storage. Implementations only move
// ciphertext; naming, keys and integrity live in VaultStore.
type Backend interface {
	// PutObject writes body under key, replacing any existing object.
	PutObject(ctx context.Context, key string, body io.Reader, size int64) error

	// GetObject opens the object stored under key.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteObject removes the object. Missing objects are not an error.
	DeleteObject(ctx context.Context, key string) error

	// Type returns the backend type identifier ("local", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}

var (
	// ErrNotFound is returned when no file is stored under a display name.
	ErrNotFound = errors.New("file not found")

	// ErrKeyMissing is returned when a stored file has no encryption key.
	ErrKeyMissing = errors.New("encryption key missing")

	// ErrIntegrity is returned when decrypted content does not match its hash.
	ErrIntegrity = errors.New("file integrity compromised")
)
