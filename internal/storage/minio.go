package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Provider = (*MinioProvider)(nil)

type MinioProvider struct {
	client *minio.Client

	// publicBaseURL is the externally reachable root for public buckets,
	// e.g. "https://files.example.com". Object URLs are derived from it
	// rather than from the internal endpoint.
	publicBaseURL string
}

// NewMinioProvider initializes the MinIO client.
// In production, pass 'useSSL: true' for S3/Cloud.
func NewMinioProvider(endpoint, accessKeyID, secretAccessKey, publicBaseURL string, useSSL bool) (Provider, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioProvider{
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Put uploads the object with its user metadata attached and returns the
// public URL it will be served from.
func (m *MinioProvider) Put(ctx context.Context, bucket Bucket, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	}

	if _, err := m.client.PutObject(ctx, string(bucket), key, body, size, putOpts); err != nil {
		return "", mapMinioError(err)
	}

	return m.publicURL(bucket, key), nil
}

// Delete removes an object.
func (m *MinioProvider) Delete(ctx context.Context, bucket Bucket, key string) error {
	opts := minio.RemoveObjectOptions{
		GovernanceBypass: true, // Useful if you have object locking enabled
	}

	if err := m.client.RemoveObject(ctx, string(bucket), key, opts); err != nil {
		return mapMinioError(err)
	}
	return nil
}

func (m *MinioProvider) publicURL(bucket Bucket, key string) string {
	// Escape each path segment, keep the separators.
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s/%s", m.publicBaseURL, bucket, strings.Join(parts, "/"))
}

// --- Helper: Error Mapping ---

// mapMinioError translates MinIO SDK errors into our domain errors
func mapMinioError(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)

	switch errResp.Code {
	case "NoSuchKey":
		return ErrNotFound
	case "AccessDenied":
		return ErrAccessDenied
	}

	// Also check HTTP status codes if Code is empty
	if errResp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if errResp.StatusCode == http.StatusForbidden {
		return ErrAccessDenied
	}

	return fmt.Errorf("storage provider error: %w", err)
}
