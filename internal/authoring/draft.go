package authoring

import "time"

// Money is an amount in minor currency units (cents). Prices and delivery
// charges never carry fractions of a cent.
type Money int64

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

type DeliveryType string

const (
	DeliveryFree DeliveryType = "free"
	DeliveryPaid DeliveryType = "paid"
)

// DeliveryPolicy describes how the listing ships. Charges are meaningful
// only for paid delivery.
type DeliveryPolicy struct {
	Type                 DeliveryType `json:"type"`
	PerItemCharge        Money        `json:"per_item_charge,omitempty"`
	AdditionalItemCharge Money        `json:"additional_item_charge,omitempty"`
}

func (p DeliveryPolicy) chosen() bool {
	return p.Type != ""
}

// complete reports whether the policy satisfies the delivery step: a type
// is chosen and, for paid delivery, both charges are set.
func (p DeliveryPolicy) complete() bool {
	if !p.chosen() {
		return false
	}
	if p.Type == DeliveryPaid {
		return p.PerItemCharge > 0 && p.AdditionalItemCharge > 0
	}
	return true
}

// ListingDraft is the accumulating target record of one authoring session.
// It is owned exclusively by that session and mutated only through the
// session's named operations; it becomes a Listing the instant the composer
// succeeds.
type ListingDraft struct {
	ShopID   string
	ShopName string

	Category    string
	Subcategory string

	Title         string
	Description   string
	HandlingNotes string

	BasePrice    Money
	BaseQuantity int

	HasVariations bool
	Variations    *VariationLedger

	// Images holds the slots in display order. Final image order comes from
	// this slice, never from upload completion order.
	Images []*ImageSlot

	Delivery       DeliveryPolicy
	PaymentMethods map[PaymentMethod]struct{}
}

func NewListingDraft() *ListingDraft {
	return &ListingDraft{
		Variations:     NewVariationLedger(),
		PaymentMethods: make(map[PaymentMethod]struct{}),
	}
}

// snapshot returns a point-in-time copy for the composer to read without
// the session lock: scalars are copied, the ledger and payment set are
// cloned, and the Images slice header is copied. The slots themselves stay
// shared; they guard their own state. An open edit buffer is not carried
// over, so uncommitted variation input can never reach a submission.
func (d *ListingDraft) snapshot() *ListingDraft {
	cp := *d
	cp.Variations = d.Variations.clone()
	cp.Images = append([]*ImageSlot(nil), d.Images...)
	cp.PaymentMethods = make(map[PaymentMethod]struct{}, len(d.PaymentMethods))
	for m := range d.PaymentMethods {
		cp.PaymentMethods[m] = struct{}{}
	}
	return &cp
}

// Quantity resolves the listing quantity: the ledger's total stock when the
// draft has variations, the seller-typed base quantity otherwise. The two
// sources are never merged.
func (d *ListingDraft) Quantity() int {
	if d.HasVariations {
		return d.Variations.TotalStock()
	}
	return d.BaseQuantity
}

// PriceRange returns [basePrice, basePrice + max(priceDelta)], recomputed
// from the committed variations.
func (d *ListingDraft) PriceRange() (Money, Money) {
	return d.Variations.PriceRange(d.BasePrice)
}

// ListingImage is one published photo of a composed listing.
type ListingImage struct {
	URL      string `json:"url"`
	AltText  string `json:"alt_text"`
	Filename string `json:"filename"`
}

// Listing is the final denormalized record. Immutable once composed;
// ownership passes to the document store at creation.
type Listing struct {
	ID       string `json:"id,omitempty"`
	SellerID string `json:"seller_id"`
	ShopID   string `json:"shop_id"`
	ShopName string `json:"shop_name"`

	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`

	Title         string `json:"title"`
	Description   string `json:"description"`
	HandlingNotes string `json:"handling_notes"`

	BasePrice Money `json:"base_price"`
	MaxPrice  Money `json:"max_price"`

	HasVariations bool        `json:"has_variations"`
	Variations    []Variation `json:"variations,omitempty"`
	Quantity      int         `json:"quantity"`

	Images []ListingImage `json:"images"`

	Delivery       DeliveryPolicy  `json:"delivery"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`

	CreatedAt time.Time `json:"created_at"`
}
