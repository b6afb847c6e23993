package authoring

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEditInProgress    = errors.New("authoring: another variation edit is already open")
	ErrNoEditInProgress  = errors.New("authoring: no variation edit in progress")
	ErrVariationNotFound = errors.New("authoring: variation not found")
	ErrLabelRequired     = errors.New("authoring: variation label is required")
	ErrNegativeDelta     = errors.New("authoring: price delta cannot be negative")
	ErrNegativeStock     = errors.New("authoring: stock quantity cannot be negative")
)

// Variation is one purchasable option of a listing. IDs are session-local
// until the listing is persisted. A variation may only add to the base
// price, never discount it.
type Variation struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	PriceDelta    Money  `json:"price_delta"`
	StockQuantity int    `json:"stock_quantity"`
}

// VariationLedger keeps the committed variations apart from a single
// uncommitted edit buffer. Partially-typed data lives only in the buffer;
// it can never leak into the committed list, the derived aggregates, or a
// submission. At most one buffer is open at a time.
type VariationLedger struct {
	committed []Variation
	buffer    *Variation
	bufferNew bool
}

func NewVariationLedger() *VariationLedger {
	return &VariationLedger{}
}

// BeginAdd opens a blank edit buffer for a new variation.
func (l *VariationLedger) BeginAdd() (Variation, error) {
	if l.buffer != nil {
		return Variation{}, ErrEditInProgress
	}
	l.buffer = &Variation{ID: uuid.NewString()}
	l.bufferNew = true
	return *l.buffer, nil
}

// BeginEdit loads an existing committed variation into the edit buffer.
func (l *VariationLedger) BeginEdit(id string) (Variation, error) {
	if l.buffer != nil {
		return Variation{}, ErrEditInProgress
	}
	for _, v := range l.committed {
		if v.ID == id {
			buf := v
			l.buffer = &buf
			l.bufferNew = false
			return buf, nil
		}
	}
	return Variation{}, ErrVariationNotFound
}

// Buffer returns a copy of the open edit buffer, if any.
func (l *VariationLedger) Buffer() (Variation, bool) {
	if l.buffer == nil {
		return Variation{}, false
	}
	return *l.buffer, true
}

// Commit validates the edited variation and folds it into the committed
// list: append for an add buffer, replace for an edit buffer. On a
// validation failure the buffer stays open and committed state is
// untouched. A commit without an open buffer is rejected, which also
// defends against re-entrant commits.
func (l *VariationLedger) Commit(edited Variation) error {
	if l.buffer == nil {
		return ErrNoEditInProgress
	}

	edited.Label = strings.TrimSpace(edited.Label)
	if edited.Label == "" {
		return ErrLabelRequired
	}
	if edited.PriceDelta < 0 {
		return ErrNegativeDelta
	}
	if edited.StockQuantity < 0 {
		return ErrNegativeStock
	}

	// Identity comes from the buffer, not the caller.
	edited.ID = l.buffer.ID

	if l.bufferNew {
		l.committed = append(l.committed, edited)
	} else {
		replaced := false
		for i := range l.committed {
			if l.committed[i].ID == edited.ID {
				l.committed[i] = edited
				replaced = true
				break
			}
		}
		if !replaced {
			return ErrVariationNotFound
		}
	}

	l.buffer = nil
	l.bufferNew = false
	return nil
}

// Cancel discards the edit buffer. A cancelled add leaves no trace; a
// cancelled edit leaves the prior committed entry untouched.
func (l *VariationLedger) Cancel() {
	l.buffer = nil
	l.bufferNew = false
}

// Remove deletes a committed variation unconditionally.
func (l *VariationLedger) Remove(id string) error {
	for i, v := range l.committed {
		if v.ID == id {
			l.committed = append(l.committed[:i], l.committed[i+1:]...)
			return nil
		}
	}
	return ErrVariationNotFound
}

// clone copies the committed list into a fresh ledger, leaving any open
// edit buffer behind.
func (l *VariationLedger) clone() *VariationLedger {
	return &VariationLedger{committed: append([]Variation(nil), l.committed...)}
}

// Snapshot returns a copy of the committed variations in order.
func (l *VariationLedger) Snapshot() []Variation {
	return append([]Variation(nil), l.committed...)
}

func (l *VariationLedger) Len() int {
	return len(l.committed)
}

// TotalStock sums committed stock quantities.
func (l *VariationLedger) TotalStock() int {
	total := 0
	for _, v := range l.committed {
		total += v.StockQuantity
	}
	return total
}

// PriceRange returns [base, base + max committed delta]. With no committed
// variations both ends equal the base price.
func (l *VariationLedger) PriceRange(base Money) (Money, Money) {
	var maxDelta Money
	for _, v := range l.committed {
		if v.PriceDelta > maxDelta {
			maxDelta = v.PriceDelta
		}
	}
	return base, base + maxDelta
}
