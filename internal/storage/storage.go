// Package storage abstracts where model files are read from and
// results written to: local filesystem, S3-compatible object stores,
// Google Cloud Storage, or Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/arx-os/ifcgeom/internal/common/retry"
	"github.com/arx-os/ifcgeom/internal/config"
)

// Backend represents a storage backend interface
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)

	Type() string
	IsAvailable(ctx context.Context) bool
}

// Manager wraps a backend with transient-failure retry.
type Manager struct {
	backend  Backend
	retryCfg retry.Config
}

// NewManager creates a manager around backend. maxAttempts <= 0 uses
// the default.
func NewManager(backend Backend, maxAttempts int) *Manager {
	return &Manager{
		backend:  backend,
		retryCfg: retry.StorageConfig(maxAttempts),
	}
}

// Open builds the backend named by cfg and wraps it in a Manager.
func Open(ctx context.Context, cfg *config.StorageConfig) (*Manager, error) {
	var backend Backend
	var err error

	switch cfg.Backend {
	case "local", "":
		backend, err = NewLocalBackend(cfg.BasePath)
	case "s3":
		backend, err = NewS3Backend(ctx, &S3Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
		})
	case "gcs":
		backend, err = NewGCSBackend(ctx, &GCSConfig{
			BucketName:      cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		})
	case "azure":
		backend, err = NewAzureBackend(ctx, &AzureConfig{
			AccountName:   cfg.AccountName,
			AccountKey:    cfg.AccountKey,
			ContainerName: cfg.Container,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewManager(backend, cfg.RetryAttempts), nil
}

// Backend exposes the wrapped backend.
func (m *Manager) Backend() Backend { return m.backend }

// Get fetches an object, retrying transient failures.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	data, result := retry.DoWithData(ctx, func(ctx context.Context) ([]byte, error) {
		return m.backend.Get(ctx, key)
	}, m.retryCfg)
	if !result.Success {
		return nil, result.LastError
	}
	return data, nil
}

// Put stores an object, retrying transient failures.
func (m *Manager) Put(ctx context.Context, key string, data []byte) error {
	result := retry.Do(ctx, func(ctx context.Context) error {
		return m.backend.Put(ctx, key, data)
	}, m.retryCfg)
	if !result.Success {
		return result.LastError
	}
	return nil
}

// Exists reports whether an object exists.
func (m *Manager) Exists(ctx context.Context, key string) (bool, error) {
	return m.backend.Exists(ctx, key)
}

// List returns the keys under prefix.
func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	return m.backend.List(ctx, prefix)
}
