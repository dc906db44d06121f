package storage

import (
	"context"
	"fmt"

	"github.com/filevault/filevault/internal/config"
	"github.com/filevault/filevault/internal/storage/local"
	"github.com/filevault/filevault/internal/storage/s3"
)

// NewBackend creates the blob backend selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "local":
		return local.New(cfg.UploadsDirectory)
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewFromConfig builds the backend and the VaultStore on top of it.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*VaultStore, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []Option
	if cfg.PersistIndex {
		opts = append(opts, WithIndex(cfg.IndexFile))
	}
	return NewVaultStore(backend, opts...)
}
