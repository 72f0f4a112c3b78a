package templatestore

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// blobDownloader is the subset of the Azure Blob client the store uses.
type blobDownloader interface {
	Download(ctx context.Context, container, blob string) (io.ReadCloser, error)
	ContainerExists(ctx context.Context, container string) error
}

type azClient struct {
	client *azblob.Client
}

func (a azClient) Download(ctx context.Context, container, blob string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a azClient) ContainerExists(ctx context.Context, container string) error {
	_, err := a.client.ServiceClient().NewContainerClient(container).GetProperties(ctx, nil)
	return err
}

// AzBlobStore reads templates from an Azure Blob Storage container.
type AzBlobStore struct {
	serviceURL string
	container  string
	prefix     string
	client     blobDownloader
}

// NewAzBlobStore authenticates with connString when set, otherwise with the default Azure credential.
func NewAzBlobStore(serviceURL, container, prefix, connString string) (*AzBlobStore, error) {
	var (
		client *azblob.Client
		err    error
	)
	if connString != "" {
		client, err = azblob.NewClientFromConnectionString(connString, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &AzBlobStore{serviceURL: serviceURL, container: container, prefix: prefix, client: azClient{client: client}}, nil
}

func (a *AzBlobStore) Load(ctx context.Context, name string) (string, error) {
	key := objectName(a.prefix, name)
	body, err := a.client.Download(ctx, a.container, key)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return "", fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("downloading %s/%s: %w", a.container, key, err)
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("downloading %s/%s: %w", a.container, key, err)
	}
	return string(data), nil
}

func (a *AzBlobStore) Check(ctx context.Context) error {
	if err := a.client.ContainerExists(ctx, a.container); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return fmt.Errorf("container %s does not exist", a.container)
		}
		return fmt.Errorf("container %s: %w", a.container, err)
	}
	return nil
}

func (a *AzBlobStore) String() string {
	return a.serviceURL + a.container + "/" + a.prefix
}
