package publish

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Azure publishes to a blob container.
type Azure struct {
	client    *azblob.Client
	account   string
	container string
}

// NewAzure creates the container if it doesn't exist. The storage account
// key is read from AZURE_STORAGE_KEY.
func NewAzure(ctx context.Context, storageAccountName, containerName string) (*Azure, error) {
	storageAccountKey := os.Getenv("AZURE_STORAGE_KEY")
	if storageAccountKey == "" {
		return nil, fmt.Errorf("AZURE_STORAGE_KEY environment variable is not set")
	}

	cred, err := azblob.NewSharedKeyCredential(storageAccountName, storageAccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", storageAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	_, err = client.CreateContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &Azure{client: client, account: storageAccountName, container: containerName}, nil
}

// Upload implements Publisher.
func (a *Azure) Upload(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	_, err := a.client.UploadStream(ctx, a.container, key, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	return err
}

// Location implements Publisher.
func (a *Azure) Location() string {
	return fmt.Sprintf("azblob://%s/%s", a.account, a.container)
}
