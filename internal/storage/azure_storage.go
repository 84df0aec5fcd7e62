package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBlobFetcher reads panels addressed as azblob://container/blob/path
type AzureBlobFetcher struct {
	client *azblob.Client
}

// NewAzureBlobFetcher creates a fetcher authenticated with a shared key
func NewAzureBlobFetcher(accountName string, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobFetcher{client: client}, nil
}

// ParseBlobSource splits azblob://container/blob/path into container and blob
func ParseBlobSource(source string) (container, blob string, err error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob source: %w", err)
	}
	container = parsed.Host
	blob = strings.TrimPrefix(parsed.Path, "/")
	if parsed.Scheme != "azblob" || container == "" || blob == "" {
		return "", "", fmt.Errorf("blob source must be azblob://container/blob, got %q", source)
	}
	return container, blob, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	container, blob, err := ParseBlobSource(source)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download of %s/%s failed: %w", container, blob, err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
