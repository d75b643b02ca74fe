package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBackend implements Backend for Azure Blob Storage.
type AzureBackend struct {
	client        *azblob.Client
	containerName string
}

// AzureConfig contains configuration for the Azure backend.
type AzureConfig struct {
	AccountName      string
	AccountKey       string
	ContainerName    string
	SASToken         string // Optional: Use SAS token instead of account key
	ConnectionString string // Optional: Use connection string
}

// NewAzureBackend creates a new Azure Blob Storage backend.
func NewAzureBackend(ctx context.Context, config *AzureConfig) (*AzureBackend, error) {
	var client *azblob.Client
	var err error

	switch {
	case config.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(config.ConnectionString, nil)
	case config.SASToken != "":
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/?%s", config.AccountName, config.SASToken)
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	case config.AccountKey != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials: %w", err)
		}
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", config.AccountName)
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	default:
		return nil, fmt.Errorf("no authentication method provided")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	if _, err := client.ServiceClient().NewContainerClient(config.ContainerName).GetProperties(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to access container %s: %w", config.ContainerName, err)
	}

	return &AzureBackend{
		client:        client,
		containerName: config.ContainerName,
	}, nil
}

// isNotFoundError checks for a blob-not-found response.
func isNotFoundError(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// Get retrieves data from Azure Blob Storage.
func (a *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, key, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Put stores data in Azure Blob Storage.
func (a *AzureBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.containerName, key, data, nil)
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

// Exists checks if a blob exists.
func (a *AzureBackend) Exists(ctx context.Context, key string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.containerName).NewBlobClient(key)
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob existence: %w", err)
	}
	return true, nil
}

// GetReader returns a reader for the blob.
func (a *AzureBackend) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, key, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get reader: %w", err)
	}
	return resp.Body, nil
}

// List returns blob keys under prefix.
func (a *AzureBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pager := a.client.NewListBlobsFlatPager(a.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				keys = append(keys, *blob.Name)
			}
		}
	}
	return keys, nil
}

// Type returns the backend name.
func (a *AzureBackend) Type() string { return "azure" }

// IsAvailable reports whether the container is reachable.
func (a *AzureBackend) IsAvailable(ctx context.Context) bool {
	_, err := a.client.ServiceClient().NewContainerClient(a.containerName).GetProperties(ctx, nil)
	return err == nil
}
