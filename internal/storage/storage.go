package storage

import (
	"context"
	"errors"
	"io"
)

// Bucket represents a logical storage zone.
// We use a type alias to prevent passing random strings.
type Bucket string

const (
	// BucketListingImages: Public Read.
	// Processed listing photos are hosted here permanently.
	BucketListingImages Bucket = "listing-images"
)

// Wrapper for standard errors so checking them is consistent
var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrAccessDenied = errors.New("storage: access denied")
	ErrUploadFailed = errors.New("storage: upload failed")
)

// PutOptions carries the content type and the user metadata stored
// alongside the object itself (SEO filename, alt text, upload timestamp),
// not only in the listing record.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Provider abstracts S3, MinIO, or Google Cloud Storage.
type Provider interface {
	// Put uploads the object and returns its stable public URL.
	Put(ctx context.Context, bucket Bucket, key string, body io.Reader, size int64, opts PutOptions) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucket Bucket, key string) error
}
