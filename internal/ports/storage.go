package ports

import (
	"context"
	"io"
	"time"
)

// UploadInput groups parameters for storing a drawing file.
type UploadInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	CacheMaxAge time.Duration
}

// DrawingStore persists uploaded drawing PDFs and resolves viewable URLs.
// Keys are relative paths of the form "<part_number>/<version_number>.pdf".
type DrawingStore interface {
	// Upload stores the file and returns the key it was stored under.
	// Uploading to an existing key replaces the object.
	Upload(ctx context.Context, in UploadInput) (string, error)

	// PresignGet returns a time-limited URL for retrieving the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
