package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
)

var (
	ErrNoPaymentMethodSelected = errors.New("authoring: no payment method selected")
	ErrAssetUploadIncomplete   = errors.New("authoring: one or more photos did not upload")
)

// DocumentCreator is the slice of the document store the composer needs.
type DocumentCreator interface {
	Create(ctx context.Context, collection docstore.Collection, payload any) (string, error)
}

// Publisher is the fire-and-forget outbound side: user notifications and
// domain events. The composer never blocks on it.
type Publisher interface {
	Notify(level, message, userID string)
	ListingCreated(listingID, shopID, userID, traceID string)
}

// Composer performs final validation and assembly: it joins outstanding
// uploads, merges base fields, the variation ledger and the uploaded-asset
// metadata into one immutable Listing, and persists it with exactly one
// document-store create.
type Composer struct {
	store     DocumentCreator
	publisher Publisher
	logger    *slog.Logger
	clock     func() time.Time
}

func NewComposer(store DocumentCreator, publisher Publisher, logger *slog.Logger) *Composer {
	return &Composer{
		store:     store,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}
}

// Submit validates the draft's cross-cutting preconditions and composes the
// listing. Expected failures come back as the sentinel errors above; on any
// failure the draft and its already-uploaded assets are left intact so the
// seller can retry without re-uploading.
func (c *Composer) Submit(ctx context.Context, sellerID string, d *ListingDraft) (Listing, error) {
	// Payment is pure draft state, so it is checked before waiting on the
	// network-bound slots.
	if len(d.PaymentMethods) == 0 {
		return Listing{}, ErrNoPaymentMethodSelected
	}

	// Join every non-terminal slot. Uploads race with seller edits right up
	// to this point; this is the barrier.
	for _, slot := range d.Images {
		if err := slot.Wait(ctx); err != nil {
			return Listing{}, fmt.Errorf("waiting for uploads: %w", err)
		}
	}

	// Reassemble the final image array from slot order. Completion order is
	// irrelevant; a slot knows its own result.
	images := make([]ListingImage, 0, len(d.Images))
	for _, slot := range d.Images {
		res, ok := slot.Result()
		if !ok {
			c.logger.WarnContext(ctx, "Submission rejected: slot not uploaded",
				"slot_id", slot.ID,
				"state", slot.State(),
				"reason", slot.FailReason(),
			)
			return Listing{}, fmt.Errorf("%w: photo %d (%s)", ErrAssetUploadIncomplete, slot.Position+1, slot.FailReason())
		}
		images = append(images, ListingImage{
			URL:      res.URL,
			AltText:  res.Metadata.AltText,
			Filename: res.Metadata.Filename,
		})
	}

	_, maxPrice := d.PriceRange()

	delivery := d.Delivery
	if delivery.Type != DeliveryPaid {
		// Charges travel only with paid delivery.
		delivery.PerItemCharge = 0
		delivery.AdditionalItemCharge = 0
	}

	methods := make([]PaymentMethod, 0, len(d.PaymentMethods))
	for m := range d.PaymentMethods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })

	listing := Listing{
		SellerID:       sellerID,
		ShopID:         d.ShopID,
		ShopName:       d.ShopName,
		Category:       d.Category,
		Subcategory:    d.Subcategory,
		Title:          d.Title,
		Description:    d.Description,
		HandlingNotes:  d.HandlingNotes,
		BasePrice:      d.BasePrice,
		MaxPrice:       maxPrice,
		HasVariations:  d.HasVariations,
		Variations:     d.Variations.Snapshot(),
		Quantity:       d.Quantity(),
		Images:         images,
		Delivery:       delivery,
		PaymentMethods: methods,
		CreatedAt:      c.clock().UTC(),
	}

	id, err := c.store.Create(ctx, docstore.CollectionListings, listing)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist listing",
			"shop_id", d.ShopID,
			"title", d.Title,
			"error", err,
		)
		return Listing{}, fmt.Errorf("persist listing: %w", err)
	}
	listing.ID = id

	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	c.logger.InfoContext(ctx, "Listing created",
		"listing_id", id,
		"shop_id", d.ShopID,
		"quantity", listing.Quantity,
		"images", len(images),
	)

	c.publisher.ListingCreated(id, d.ShopID, sellerID, traceID)
	c.publisher.Notify("info", fmt.Sprintf("Your listing %q is now live.", d.Title), sellerID)

	return listing, nil
}
