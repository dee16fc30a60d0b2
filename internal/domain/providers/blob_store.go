package providers

import (
	"context"
	"io"
)

// BlobStore defines the interface for attachment and image storage
type BlobStore interface {
	// Upload stores the object under path and returns its public URL
	Upload(ctx context.Context, path string, contentType string, body io.Reader) (string, error)

	// PublicURL returns the public URL for an already-stored object
	PublicURL(path string) string

	// Delete removes an object by the URL previously returned from Upload
	Delete(ctx context.Context, url string) error
}
