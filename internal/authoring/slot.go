package authoring

import (
	"context"
	"sync"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/assets"
)

// MaxImageSlots caps photos per draft. Files selected beyond the cap are
// skipped with a warning, never accepted.
const MaxImageSlots = 5

type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadUploading UploadState = "uploading"
	UploadUploaded  UploadState = "uploaded"
	UploadFailed    UploadState = "failed"
)

// ImageSlot tracks one photo from selection through upload. The slot owns
// its own state lock so the upload goroutine can complete it without
// touching the session; `done` closes exactly once, on the first terminal
// transition, which is what the composer joins on.
//
// A slot removed from the draft while its upload is still in flight simply
// becomes detached: the network call may finish either way, but nothing
// reads its result again.
type ImageSlot struct {
	ID       string
	Position int
	Asset    assets.ProcessedAsset

	// objectKey is the destination key the upload was launched with. Kept so
	// a removed slot's object can be cleaned up.
	objectKey string

	mu         sync.Mutex
	state      UploadState
	result     assets.UploadResult
	failReason string
	done       chan struct{}
}

func newImageSlot(id string, position int, asset assets.ProcessedAsset) *ImageSlot {
	return &ImageSlot{
		ID:       id,
		Position: position,
		Asset:    asset,
		state:    UploadPending,
		done:     make(chan struct{}),
	}
}

func (s *ImageSlot) markUploading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == UploadPending {
		s.state = UploadUploading
	}
}

func (s *ImageSlot) completeUploaded(res assets.UploadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() {
		return
	}
	s.state = UploadUploaded
	s.result = res
	close(s.done)
}

func (s *ImageSlot) completeFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() {
		return
	}
	s.state = UploadFailed
	s.failReason = err.Error()
	close(s.done)
}

// terminal must be called with the lock held.
func (s *ImageSlot) terminal() bool {
	return s.state == UploadUploaded || s.state == UploadFailed
}

func (s *ImageSlot) State() UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the upload result; the bool is false until the slot is
// Uploaded.
func (s *ImageSlot) Result() (assets.UploadResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != UploadUploaded {
		return assets.UploadResult{}, false
	}
	return s.result, true
}

func (s *ImageSlot) FailReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReason
}

// Wait blocks until the slot reaches a terminal state or the context ends.
func (s *ImageSlot) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Preview returns the processed bytes and content type for the session-local
// preview endpoint.
func (s *ImageSlot) Preview() ([]byte, string) {
	return s.Asset.Bytes, s.Asset.ContentType
}
