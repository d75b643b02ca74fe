package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBackend implements Backend for Google Cloud Storage.
type GCSBackend struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
}

// GCSConfig contains configuration for the GCS backend.
type GCSConfig struct {
	BucketName      string
	CredentialsJSON string // Optional: JSON credentials
	CredentialsFile string // Optional: Path to credentials file
}

// NewGCSBackend creates a new Google Cloud Storage backend.
func NewGCSBackend(ctx context.Context, config *GCSConfig) (*GCSBackend, error) {
	var opts []option.ClientOption

	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	} else if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	// If no credentials provided, will use Application Default Credentials

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	bucket := client.Bucket(config.BucketName)

	if _, err := bucket.Attrs(ctx); err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", config.BucketName, err)
	}

	return &GCSBackend{
		client:     client,
		bucket:     bucket,
		bucketName: config.BucketName,
	}, nil
}

// Get retrieves data from GCS.
func (g *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Put stores data in GCS.
func (g *GCSBackend) Put(ctx context.Context, key string, data []byte) error {
	writer := g.bucket.Object(key).NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Exists checks if an object exists in GCS.
func (g *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// GetReader returns a reader for the object.
func (g *GCSBackend) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get reader: %w", err)
	}
	return reader, nil
}

// List returns object keys under prefix.
func (g *GCSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Type returns the backend name.
func (g *GCSBackend) Type() string { return "gcs" }

// IsAvailable reports whether the bucket is reachable.
func (g *GCSBackend) IsAvailable(ctx context.Context) bool {
	_, err := g.bucket.Attrs(ctx)
	return err == nil
}
