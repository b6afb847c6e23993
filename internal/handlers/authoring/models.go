package authoring

import (
	core "github.com/Millionpixels-tech/marketplace-sub001/internal/authoring"
)

// StartSessionRequest optionally preselects the shop when the seller comes
// from a shop page.
type StartSessionRequest struct {
	ShopID string `json:"shop_id,omitempty"`
}

type NavigateRequest struct {
	Step core.Step `json:"step"`
}

// NavigateResponse reports whether the wizard moved and where it now is.
type NavigateResponse struct {
	Moved    bool          `json:"moved"`
	Snapshot core.Snapshot `json:"snapshot"`
}

// DraftUpdateRequest carries step-local field updates. Only the sections
// present in the body are applied.
type DraftUpdateRequest struct {
	Shop *struct {
		ShopID string `json:"shop_id"`
	} `json:"shop,omitempty"`

	Category *struct {
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
	} `json:"category,omitempty"`

	Details *struct {
		Title         string     `json:"title"`
		Description   string     `json:"description"`
		HandlingNotes string     `json:"handling_notes"`
		BasePrice     core.Money `json:"base_price"`
		BaseQuantity  int        `json:"base_quantity"`
	} `json:"details,omitempty"`

	HasVariations *bool `json:"has_variations,omitempty"`
}

type BeginEditRequest struct {
	VariationID string `json:"variation_id"`
}

type CommitVariationRequest struct {
	Label         string     `json:"label"`
	PriceDelta    core.Money `json:"price_delta"`
	StockQuantity int        `json:"stock_quantity"`
}

type DeliveryRequest struct {
	Type                 core.DeliveryType `json:"type"`
	PerItemCharge        core.Money        `json:"per_item_charge"`
	AdditionalItemCharge core.Money        `json:"additional_item_charge"`
}

type PaymentRequest struct {
	Methods []core.PaymentMethod `json:"methods"`
}

// AddImagesResponse reports the slots created for this upload batch plus how
// many files were refused for exceeding the photo cap.
type AddImagesResponse struct {
	Added   []core.SlotSummary `json:"added"`
	Skipped int                `json:"skipped"`
}
