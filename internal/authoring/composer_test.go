package authoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/assets"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/testutil"
)

func testAsset(name string) assets.ProcessedAsset {
	return assets.ProcessedAsset{
		Bytes:       []byte("not really a jpeg"),
		ContentType: "image/jpeg",
		Filename:    name,
		AltText:     "test photo",
	}
}

// fakeStore records Create calls.
type fakeStore struct {
	mu      sync.Mutex
	created []any
	err     error
}

func (f *fakeStore) Create(ctx context.Context, collection docstore.Collection, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, payload)
	return "listing-1", nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakePublisher records notifications and events.
type fakePublisher struct {
	mu       sync.Mutex
	notices  []string
	listings []string
}

func (f *fakePublisher) Notify(level, message, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, level+": "+message)
}

func (f *fakePublisher) ListingCreated(listingID, shopID, userID, traceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = append(f.listings, listingID)
}

func (f *fakePublisher) createdListings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listings...)
}

// uploadedSlot returns a slot already in the Uploaded state.
func uploadedSlot(id string, position int, url string) *ImageSlot {
	slot := newImageSlot(id, position, testAsset(id+".jpg"))
	slot.completeUploaded(assets.UploadResult{
		URL: url,
		Metadata: assets.UploadMetadata{
			Filename: id + ".jpg",
			AltText:  "photo " + id,
		},
	})
	return slot
}

func submittableDraft() *ListingDraft {
	d := NewListingDraft()
	d.ShopID = "shop-1"
	d.ShopName = "Ceylon Crafts"
	d.Category = "Art & Collectibles"
	d.Title = "Batik wall hanging"
	d.Description = "Hand dyed"
	d.HandlingNotes = "Ships rolled"
	d.BasePrice = 4500
	d.BaseQuantity = 2
	d.Delivery = DeliveryPolicy{Type: DeliveryFree}
	d.PaymentMethods[PaymentCashOnDelivery] = struct{}{}
	d.Images = []*ImageSlot{uploadedSlot("a", 0, "https://cdn/a.jpg")}
	return d
}

func TestComposer_Submit_Success(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	c := NewComposer(store, pub, testutil.NewTestLogger())

	listing, err := c.Submit(context.Background(), "seller-1", submittableDraft())
	require.NoError(t, err)

	assert.Equal(t, "listing-1", listing.ID)
	assert.Equal(t, "seller-1", listing.SellerID)
	assert.Equal(t, 2, listing.Quantity)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, []string{"listing-1"}, pub.createdListings())
}

func TestComposer_Submit_NoPaymentMethod(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	d.PaymentMethods = map[PaymentMethod]struct{}{}
	// Even a failed slot must not mask the payment error: payment is checked
	// before the upload join
	failed := newImageSlot("b", 1, testAsset("b.jpg"))
	failed.completeFailed(errors.New("connection reset"))
	d.Images = append(d.Images, failed)

	_, err := c.Submit(context.Background(), "seller-1", d)
	assert.ErrorIs(t, err, ErrNoPaymentMethodSelected)
	assert.Zero(t, store.count())
}

func TestComposer_Submit_FailedSlotRejectsWholeDraft(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	failed := newImageSlot("b", 1, testAsset("b.jpg"))
	failed.completeFailed(errors.New("connection reset"))
	d.Images = append(d.Images, failed)

	_, err := c.Submit(context.Background(), "seller-1", d)
	assert.ErrorIs(t, err, ErrAssetUploadIncomplete)
	assert.Zero(t, store.count())

	// Draft state survives for a retry
	assert.Len(t, d.Images, 2)
	res, ok := d.Images[0].Result()
	require.True(t, ok)
	assert.Equal(t, "https://cdn/a.jpg", res.URL)
}

func TestComposer_Submit_WaitsForInflightUploads(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	pending := newImageSlot("b", 1, testAsset("b.jpg"))
	pending.markUploading()
	d.Images = append(d.Images, pending)

	// Complete the slot while the composer is blocked on the join
	go func() {
		time.Sleep(20 * time.Millisecond)
		pending.completeUploaded(assets.UploadResult{
			URL:      "https://cdn/b.jpg",
			Metadata: assets.UploadMetadata{Filename: "b.jpg"},
		})
	}()

	listing, err := c.Submit(context.Background(), "seller-1", d)
	require.NoError(t, err)
	require.Len(t, listing.Images, 2)
	assert.Equal(t, "https://cdn/b.jpg", listing.Images[1].URL)
}

func TestComposer_Submit_ContextCancelledDuringJoin(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	stuck := newImageSlot("b", 1, testAsset("b.jpg"))
	stuck.markUploading()
	d.Images = append(d.Images, stuck)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Submit(ctx, "seller-1", d)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, store.count())
}

func TestComposer_Submit_ImageOrderFollowsSlots(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	// Slots completed out of order; listing order must follow the slice
	slotA := uploadedSlot("a", 0, "https://cdn/a.jpg")
	slotB := newImageSlot("b", 1, testAsset("b.jpg"))
	slotC := uploadedSlot("c", 2, "https://cdn/c.jpg")
	slotB.completeUploaded(assets.UploadResult{URL: "https://cdn/b.jpg", Metadata: assets.UploadMetadata{Filename: "b.jpg"}})
	d.Images = []*ImageSlot{slotA, slotB, slotC}

	listing, err := c.Submit(context.Background(), "seller-1", d)
	require.NoError(t, err)

	urls := make([]string, len(listing.Images))
	for i, img := range listing.Images {
		urls[i] = img.URL
	}
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg", "https://cdn/c.jpg"}, urls)
}

func TestComposer_Submit_QuantityFromLedgerWithVariations(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	d.HasVariations = true
	for _, v := range []struct {
		label string
		stock int
		delta Money
	}{{"Small", 3, 0}, {"Large", 5, 700}} {
		buf, err := d.Variations.BeginAdd()
		require.NoError(t, err)
		buf.Label = v.label
		buf.StockQuantity = v.stock
		buf.PriceDelta = v.delta
		require.NoError(t, d.Variations.Commit(buf))
	}

	listing, err := c.Submit(context.Background(), "seller-1", d)
	require.NoError(t, err)

	assert.Equal(t, 8, listing.Quantity)
	assert.Equal(t, Money(4500), listing.BasePrice)
	assert.Equal(t, Money(5200), listing.MaxPrice)
	assert.Len(t, listing.Variations, 2)
}

func TestComposer_Submit_FreeDeliveryStripsCharges(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	d.Delivery = DeliveryPolicy{Type: DeliveryFree, PerItemCharge: 999, AdditionalItemCharge: 999}

	listing, err := c.Submit(context.Background(), "seller-1", d)
	require.NoError(t, err)

	assert.Equal(t, Money(0), listing.Delivery.PerItemCharge)
	assert.Equal(t, Money(0), listing.Delivery.AdditionalItemCharge)
}

func TestComposer_Submit_StoreFailurePreservesDraft(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	pub := &fakePublisher{}
	c := NewComposer(store, pub, testutil.NewTestLogger())

	d := submittableDraft()
	_, err := c.Submit(context.Background(), "seller-1", d)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPaymentMethodSelected)

	assert.Empty(t, pub.createdListings())
	// Uploaded slot still usable for retry
	_, ok := d.Images[0].Result()
	assert.True(t, ok)
}

func TestComposer_Submit_PaymentMethodsSorted(t *testing.T) {
	store := &fakeStore{}
	c := NewComposer(store, &fakePublisher{}, testutil.NewTestLogger())

	d := submittableDraft()
	d.PaymentMethods[PaymentBankTransfer] = struct{}{}

	listing, err := c.Submit(context.Background(), "seller-1", d)
	require.NoError(t, err)
	assert.Equal(t, []PaymentMethod{PaymentBankTransfer, PaymentCashOnDelivery}, listing.PaymentMethods)
}
