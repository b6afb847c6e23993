package assets

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/storage"
)

// UploadMetadata is returned with the URL and also stored on the object
// itself as user metadata, so the SEO fields survive independently of the
// listing record.
type UploadMetadata struct {
	Filename    string    `json:"filename"`
	AltText     string    `json:"alt_text"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type UploadResult struct {
	URL      string         `json:"url"`
	Metadata UploadMetadata `json:"metadata"`
}

// Uploader pushes processed assets to the object store. Each call is
// independent; the authoring session runs one per image slot, concurrently.
type Uploader struct {
	provider storage.Provider
	bucket   storage.Bucket
	logger   *slog.Logger
	clock    func() time.Time
}

func NewUploader(provider storage.Provider, bucket storage.Bucket, logger *slog.Logger) *Uploader {
	return &Uploader{
		provider: provider,
		bucket:   bucket,
		logger:   logger,
		clock:    time.Now,
	}
}

// Upload writes the asset under the caller-chosen destination key and
// returns the stable URL plus upload metadata. No retry here: a failure is
// reported to the caller, who surfaces it per slot.
func (u *Uploader) Upload(ctx context.Context, asset ProcessedAsset, destinationKey string) (UploadResult, error) {
	uploadedAt := u.clock().UTC()

	meta := UploadMetadata{
		Filename:    asset.Filename,
		AltText:     asset.AltText,
		ContentType: asset.ContentType,
		SizeBytes:   int64(len(asset.Bytes)),
		UploadedAt:  uploadedAt,
	}

	opts := storage.PutOptions{
		ContentType: asset.ContentType,
		Metadata: map[string]string{
			"Seo-Filename": asset.Filename,
			"Alt-Text":     asset.AltText,
			"Uploaded-At":  uploadedAt.Format(time.RFC3339),
		},
	}

	url, err := u.provider.Put(ctx, u.bucket, destinationKey, bytes.NewReader(asset.Bytes), meta.SizeBytes, opts)
	if err != nil {
		u.logger.WarnContext(ctx, "Asset upload failed",
			"key", destinationKey,
			"size", meta.SizeBytes,
			"error", err,
		)
		return UploadResult{}, fmt.Errorf("upload %s: %w", destinationKey, err)
	}

	u.logger.DebugContext(ctx, "Asset uploaded",
		"key", destinationKey,
		"url", url,
		"size", meta.SizeBytes,
	)

	return UploadResult{URL: url, Metadata: meta}, nil
}

// Remove deletes a previously uploaded object. Used when a photo is dropped
// from a draft after its upload already finished.
func (u *Uploader) Remove(ctx context.Context, destinationKey string) error {
	if err := u.provider.Delete(ctx, u.bucket, destinationKey); err != nil {
		u.logger.WarnContext(ctx, "Asset delete failed",
			"key", destinationKey,
			"error", err,
		)
		return fmt.Errorf("remove %s: %w", destinationKey, err)
	}
	return nil
}
