package authoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AddCommit(t *testing.T) {
	l := NewVariationLedger()

	buf, err := l.BeginAdd()
	require.NoError(t, err)
	require.NotEmpty(t, buf.ID)

	buf.Label = "Large"
	buf.PriceDelta = 500
	buf.StockQuantity = 10
	require.NoError(t, l.Commit(buf))

	committed := l.Snapshot()
	require.Len(t, committed, 1)
	assert.Equal(t, buf.ID, committed[0].ID)
	assert.Equal(t, "Large", committed[0].Label)
	assert.Equal(t, 10, l.TotalStock())
}

func TestLedger_OnlyOneBufferAtATime(t *testing.T) {
	l := NewVariationLedger()

	_, err := l.BeginAdd()
	require.NoError(t, err)

	_, err = l.BeginAdd()
	assert.ErrorIs(t, err, ErrEditInProgress)

	_, err = l.BeginEdit("whatever")
	assert.ErrorIs(t, err, ErrEditInProgress)
}

func TestLedger_CommitValidation(t *testing.T) {
	tests := []struct {
		name    string
		edited  Variation
		wantErr error
	}{
		{"empty label", Variation{Label: "   "}, ErrLabelRequired},
		{"negative delta", Variation{Label: "Small", PriceDelta: -1}, ErrNegativeDelta},
		{"negative stock", Variation{Label: "Small", StockQuantity: -5}, ErrNegativeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewVariationLedger()
			_, err := l.BeginAdd()
			require.NoError(t, err)

			err = l.Commit(tt.edited)
			assert.ErrorIs(t, err, tt.wantErr)

			// Buffer survives a failed commit so the seller can fix the field
			_, open := l.Buffer()
			assert.True(t, open)
			assert.Zero(t, l.Len())
		})
	}
}

func TestLedger_CommitWithoutBuffer(t *testing.T) {
	l := NewVariationLedger()
	err := l.Commit(Variation{Label: "Small"})
	assert.ErrorIs(t, err, ErrNoEditInProgress)
}

func TestLedger_DoubleCommitRejected(t *testing.T) {
	l := NewVariationLedger()

	buf, err := l.BeginAdd()
	require.NoError(t, err)
	buf.Label = "Medium"
	buf.StockQuantity = 2

	require.NoError(t, l.Commit(buf))

	// A second commit of the same buffer must not duplicate the entry
	err = l.Commit(buf)
	assert.ErrorIs(t, err, ErrNoEditInProgress)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_EditReplacesNotAppends(t *testing.T) {
	l := NewVariationLedger()

	buf, _ := l.BeginAdd()
	buf.Label = "Red"
	buf.PriceDelta = 100
	buf.StockQuantity = 4
	require.NoError(t, l.Commit(buf))

	edit, err := l.BeginEdit(buf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red", edit.Label)

	edit.Label = "Crimson"
	edit.StockQuantity = 7
	require.NoError(t, l.Commit(edit))

	committed := l.Snapshot()
	require.Len(t, committed, 1)
	assert.Equal(t, buf.ID, committed[0].ID)
	assert.Equal(t, "Crimson", committed[0].Label)
	assert.Equal(t, 7, l.TotalStock())
}

func TestLedger_CommitIgnoresCallerSuppliedID(t *testing.T) {
	l := NewVariationLedger()

	buf, _ := l.BeginAdd()
	buf.Label = "Blue"
	buf.ID = "spoofed-id"
	require.NoError(t, l.Commit(buf))

	committed := l.Snapshot()
	require.Len(t, committed, 1)
	assert.NotEqual(t, "spoofed-id", committed[0].ID)
}

func TestLedger_CancelAddLeavesNoTrace(t *testing.T) {
	l := NewVariationLedger()

	_, err := l.BeginAdd()
	require.NoError(t, err)
	l.Cancel()

	assert.Zero(t, l.Len())
	_, open := l.Buffer()
	assert.False(t, open)

	// Ledger is usable again
	_, err = l.BeginAdd()
	assert.NoError(t, err)
}

func TestLedger_CancelEditKeepsCommitted(t *testing.T) {
	l := NewVariationLedger()

	buf, _ := l.BeginAdd()
	buf.Label = "Green"
	buf.StockQuantity = 3
	require.NoError(t, l.Commit(buf))

	edit, _ := l.BeginEdit(buf.ID)
	edit.Label = "Ruined"
	l.Cancel()

	committed := l.Snapshot()
	require.Len(t, committed, 1)
	assert.Equal(t, "Green", committed[0].Label)
}

func TestLedger_Remove(t *testing.T) {
	l := NewVariationLedger()

	a, _ := l.BeginAdd()
	a.Label = "A"
	a.StockQuantity = 1
	require.NoError(t, l.Commit(a))

	b, _ := l.BeginAdd()
	b.Label = "B"
	b.StockQuantity = 2
	require.NoError(t, l.Commit(b))

	require.NoError(t, l.Remove(a.ID))
	assert.Equal(t, 2, l.TotalStock())

	assert.ErrorIs(t, l.Remove(a.ID), ErrVariationNotFound)
}

func TestLedger_BeginEditUnknownID(t *testing.T) {
	l := NewVariationLedger()
	_, err := l.BeginEdit("missing")
	assert.ErrorIs(t, err, ErrVariationNotFound)
}

func TestLedger_PriceRange(t *testing.T) {
	l := NewVariationLedger()

	lo, hi := l.PriceRange(1000)
	assert.Equal(t, Money(1000), lo)
	assert.Equal(t, Money(1000), hi)

	for _, delta := range []Money{0, 250, 100} {
		buf, _ := l.BeginAdd()
		buf.Label = "v"
		buf.PriceDelta = delta
		require.NoError(t, l.Commit(buf))
	}

	lo, hi = l.PriceRange(1000)
	assert.Equal(t, Money(1000), lo)
	assert.Equal(t, Money(1250), hi)
}

func TestLedger_BufferNeverLeaksIntoAggregates(t *testing.T) {
	l := NewVariationLedger()

	buf, _ := l.BeginAdd()
	buf.Label = "Huge"
	buf.PriceDelta = 9999
	buf.StockQuantity = 50
	// Not committed

	assert.Zero(t, l.TotalStock())
	_, hi := l.PriceRange(100)
	assert.Equal(t, Money(100), hi)
	assert.Empty(t, l.Snapshot())
}
