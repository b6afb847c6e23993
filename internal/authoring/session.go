package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/assets"
)

var (
	ErrShopRequired         = errors.New("authoring: a shop must be selected")
	ErrInvalidCategory      = errors.New("authoring: unknown category or subcategory")
	ErrNegativePrice        = errors.New("authoring: price cannot be negative")
	ErrNegativeQuantity     = errors.New("authoring: quantity cannot be negative")
	ErrInvalidDelivery      = errors.New("authoring: invalid delivery policy")
	ErrInvalidPaymentMethod = errors.New("authoring: unknown payment method")
	ErrBankAccountRequired  = errors.New("authoring: add a bank account before enabling bank transfer")
	ErrSlotNotFound         = errors.New("authoring: image slot not found")
	ErrSubmitInProgress     = errors.New("authoring: submission already in progress")
)

// AssetUploader is the slice of the upload pipeline the session needs.
type AssetUploader interface {
	Upload(ctx context.Context, asset assets.ProcessedAsset, destinationKey string) (assets.UploadResult, error)
	Remove(ctx context.Context, destinationKey string) error
}

// BankAccountChecker gates the bank-transfer payment option.
type BankAccountChecker interface {
	HasAny(ctx context.Context, userID string) (bool, error)
}

// Deps bundles the session's collaborators.
type Deps struct {
	Uploader      AssetUploader
	Banks         BankAccountChecker
	Composer      *Composer
	Publisher     Publisher
	TaxonomyValid func(category, subcategory string) bool
	Logger        *slog.Logger
	Clock         func() time.Time
}

// ImageFile is one photo as it arrives from the multipart form.
type ImageFile struct {
	Name string
	Data []byte
}

// Session owns one listing draft end to end: the draft, its wizard, its
// variation ledger and its image slots. All mutations go through the named
// operations below, which serialize on the session mutex. Upload goroutines
// stay out of that mutex; they talk to their slot only.
//
// Sessions live in memory and are discarded on submit or expiry. A
// half-finished draft is never persisted.
type Session struct {
	ID     string
	UserID string

	deps Deps

	mu          sync.Mutex
	draft       *ListingDraft
	wizard      *Wizard
	positionSeq int
	submitting  bool
	lastActive  time.Time

	// uploadCtx outlives individual HTTP requests so an upload keeps going
	// after the request that started it returns. Cancelled when the session
	// is discarded, aborting whatever is still in flight.
	uploadCtx     context.Context
	cancelUploads context.CancelFunc
}

func newSession(userID string, deps Deps) *Session {
	draft := NewListingDraft()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		deps:          deps,
		draft:         draft,
		wizard:        NewWizard(draft),
		lastActive:    deps.Clock(),
		uploadCtx:     ctx,
		cancelUploads: cancel,
	}
}

func (s *Session) touch() {
	s.lastActive = s.deps.Clock()
}

// --- Step mutations ---

func (s *Session) SelectShop(shopID, shopName string) error {
	if shopID == "" {
		return ErrShopRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.ShopID = shopID
	s.draft.ShopName = shopName
	return nil
}

func (s *Session) SetCategory(category, subcategory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if category == "" || !s.deps.TaxonomyValid(category, subcategory) {
		return ErrInvalidCategory
	}
	s.draft.Category = category
	s.draft.Subcategory = subcategory
	return nil
}

// DetailsUpdate carries the details step's fields as typed by the seller.
type DetailsUpdate struct {
	Title         string
	Description   string
	HandlingNotes string
	BasePrice     Money
	BaseQuantity  int
}

func (s *Session) UpdateDetails(u DetailsUpdate) error {
	if u.BasePrice < 0 {
		return ErrNegativePrice
	}
	if u.BaseQuantity < 0 {
		return ErrNegativeQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.Title = strings.TrimSpace(u.Title)
	s.draft.Description = strings.TrimSpace(u.Description)
	s.draft.HandlingNotes = strings.TrimSpace(u.HandlingNotes)
	s.draft.BasePrice = u.BasePrice
	s.draft.BaseQuantity = u.BaseQuantity
	return nil
}

func (s *Session) SetHasVariations(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.HasVariations = enabled
}

// --- Variation ledger (proxied so every mutation holds the session lock) ---

func (s *Session) BeginAddVariation() (Variation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.draft.Variations.BeginAdd()
}

func (s *Session) BeginEditVariation(id string) (Variation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.draft.Variations.BeginEdit(id)
}

func (s *Session) CommitVariation(v Variation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.draft.Variations.Commit(v)
}

func (s *Session) CancelVariation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.Variations.Cancel()
}

func (s *Session) RemoveVariation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.draft.Variations.Remove(id)
}

// --- Image pipeline ---

// AddImages processes each file synchronously (compression + SEO metadata)
// and launches its upload in the background. Files beyond the slot cap are
// skipped and reported via the returned count; the accepted ones are never
// rolled back.
func (s *Session) AddImages(files []ImageFile) (added []*ImageSlot, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, f := range files {
		if len(s.draft.Images) >= MaxImageSlots {
			skipped++
			continue
		}

		pctx := assets.PhotoContext{
			ProductName: s.draft.Title,
			Category:    s.draft.Category,
			Subcategory: s.draft.Subcategory,
			ShopName:    s.draft.ShopName,
			Position:    s.positionSeq,
		}
		s.positionSeq++

		processed := assets.Process(f.Data, f.Name, pctx)
		if processed.Degraded {
			s.deps.Logger.Warn("Photo processing degraded, uploading original bytes",
				"session_id", s.ID,
				"file", f.Name,
			)
			s.deps.Publisher.Notify("warning",
				fmt.Sprintf("We could not optimise %s; the original photo will be used.", f.Name),
				s.UserID)
		}

		slot := newImageSlot(uuid.NewString(), pctx.Position, processed)
		slot.objectKey = assets.ObjectKey("listings", s.draft.ShopID, s.deps.Clock(), processed.Filename)
		s.draft.Images = append(s.draft.Images, slot)
		added = append(added, slot)

		go s.upload(slot, slot.objectKey)
	}

	if skipped > 0 {
		s.deps.Publisher.Notify("warning",
			fmt.Sprintf("A listing can have at most %d photos; %d file(s) were skipped.", MaxImageSlots, skipped),
			s.UserID)
	}

	return added, skipped
}

// upload runs outside the session lock and reports back through the slot.
func (s *Session) upload(slot *ImageSlot, key string) {
	slot.markUploading()

	res, err := s.deps.Uploader.Upload(s.uploadCtx, slot.Asset, key)
	if err != nil {
		slot.completeFailed(err)
		s.deps.Publisher.Notify("error",
			fmt.Sprintf("Uploading %s failed. Remove the photo and try again.", slot.Asset.Filename),
			s.UserID)
		return
	}
	slot.completeUploaded(res)
}

// RemoveImage drops a slot from the draft. An in-flight upload for it is
// left to finish or abort on its own; either way the result is discarded
// with the slot. An already-uploaded object is deleted from storage in the
// background, best effort.
func (s *Session) RemoveImage(slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for i, slot := range s.draft.Images {
		if slot.ID == slotID {
			s.draft.Images = append(s.draft.Images[:i], s.draft.Images[i+1:]...)
			if _, uploaded := slot.Result(); uploaded {
				go func(key, slotID string) {
					if err := s.deps.Uploader.Remove(s.uploadCtx, key); err != nil {
						s.deps.Logger.Warn("Failed to delete removed photo",
							"slot_id", slotID,
							"key", key,
							"error", err,
						)
					}
				}(slot.objectKey, slot.ID)
			}
			return nil
		}
	}
	return ErrSlotNotFound
}

// ImagePreview returns the processed bytes for the preview endpoint.
func (s *Session) ImagePreview(slotID string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range s.draft.Images {
		if slot.ID == slotID {
			data, contentType := slot.Preview()
			return data, contentType, nil
		}
	}
	return nil, "", ErrSlotNotFound
}

// --- Delivery & payment ---

func (s *Session) SetDelivery(p DeliveryPolicy) error {
	if p.Type != DeliveryFree && p.Type != DeliveryPaid {
		return ErrInvalidDelivery
	}
	if p.PerItemCharge < 0 || p.AdditionalItemCharge < 0 {
		return ErrInvalidDelivery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.Delivery = p
	return nil
}

// SetPaymentMethods replaces the payment method set. Bank transfer is
// refused outright while the seller has no payout account on file, so the
// draft can never carry it in that state.
func (s *Session) SetPaymentMethods(ctx context.Context, methods []PaymentMethod) error {
	set := make(map[PaymentMethod]struct{}, len(methods))
	for _, m := range methods {
		switch m {
		case PaymentCashOnDelivery, PaymentBankTransfer:
			set[m] = struct{}{}
		default:
			return fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, m)
		}
	}

	if _, wantsBank := set[PaymentBankTransfer]; wantsBank {
		has, err := s.deps.Banks.HasAny(ctx, s.UserID)
		if err != nil {
			return fmt.Errorf("check bank accounts: %w", err)
		}
		if !has {
			return ErrBankAccountRequired
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.draft.PaymentMethods = set
	return nil
}

// --- Navigation ---

func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.wizard.Advance()
}

func (s *Session) Retreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.wizard.Retreat()
}

func (s *Session) GoTo(step Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.wizard.GoTo(step)
}

// --- Submission ---

// Submit takes a point-in-time snapshot of the draft under the session
// lock and hands the snapshot to the composer, so the lock is not held
// while the composer waits on uploads. Edits arriving during the join
// mutate the live draft only; they cannot tear the record being composed.
// A second submit while one is running is refused.
func (s *Session) Submit(ctx context.Context) (Listing, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return Listing{}, ErrSubmitInProgress
	}
	s.submitting = true
	s.touch()
	draft := s.draft.snapshot()
	s.mu.Unlock()

	listing, err := s.deps.Composer.Submit(ctx, s.UserID, draft)

	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()

	return listing, err
}

// --- Introspection ---

// SlotSummary is the per-photo view exposed to the frontend.
type SlotSummary struct {
	ID         string      `json:"id"`
	Filename   string      `json:"filename"`
	State      UploadState `json:"state"`
	URL        string      `json:"url,omitempty"`
	FailReason string      `json:"fail_reason,omitempty"`
}

// Snapshot is the full wizard + draft state for the frontend.
type Snapshot struct {
	SessionID     string          `json:"session_id"`
	CurrentStep   Step            `json:"current_step"`
	CompleteSteps map[Step]bool   `json:"complete_steps"`
	ShopID        string          `json:"shop_id,omitempty"`
	ShopName      string          `json:"shop_name,omitempty"`
	Category      string          `json:"category,omitempty"`
	Subcategory   string          `json:"subcategory,omitempty"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	HandlingNotes string          `json:"handling_notes,omitempty"`
	BasePrice     Money           `json:"base_price"`
	BaseQuantity  int             `json:"base_quantity"`
	HasVariations bool            `json:"has_variations"`
	Variations    []Variation     `json:"variations"`
	EditBuffer    *Variation      `json:"edit_buffer,omitempty"`
	TotalStock    int             `json:"total_stock"`
	MinPrice      Money           `json:"min_price"`
	MaxPrice      Money           `json:"max_price"`
	Images        []SlotSummary   `json:"images"`
	Delivery      DeliveryPolicy  `json:"delivery"`
	Payments      []PaymentMethod `json:"payment_methods"`
}

func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft

	complete := make(map[Step]bool, len(stepSequence))
	for _, step := range stepSequence {
		complete[step] = s.wizard.StepComplete(step)
	}

	images := make([]SlotSummary, 0, len(d.Images))
	for _, slot := range d.Images {
		summary := SlotSummary{
			ID:       slot.ID,
			Filename: slot.Asset.Filename,
			State:    slot.State(),
		}
		if res, ok := slot.Result(); ok {
			summary.URL = res.URL
		} else {
			summary.FailReason = slot.FailReason()
		}
		images = append(images, summary)
	}

	minPrice, maxPrice := d.PriceRange()

	payments := make([]PaymentMethod, 0, len(d.PaymentMethods))
	for m := range d.PaymentMethods {
		payments = append(payments, m)
	}

	var buffer *Variation
	if buf, ok := d.Variations.Buffer(); ok {
		buffer = &buf
	}

	return Snapshot{
		SessionID:     s.ID,
		CurrentStep:   s.wizard.Current(),
		CompleteSteps: complete,
		ShopID:        d.ShopID,
		ShopName:      d.ShopName,
		Category:      d.Category,
		Subcategory:   d.Subcategory,
		Title:         d.Title,
		Description:   d.Description,
		HandlingNotes: d.HandlingNotes,
		BasePrice:     d.BasePrice,
		BaseQuantity:  d.BaseQuantity,
		HasVariations: d.HasVariations,
		Variations:    d.Variations.Snapshot(),
		EditBuffer:    buffer,
		TotalStock:    d.Variations.TotalStock(),
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		Images:        images,
		Delivery:      d.Delivery,
		Payments:      payments,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// discard aborts in-flight uploads and drops the session's claim on its
// draft.
func (s *Session) discard() {
	s.cancelUploads()
}
