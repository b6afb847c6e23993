package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
)

// fakeDocStore serves canned documents per collection.
type fakeDocStore struct {
	docs map[docstore.Collection][]docstore.Document
	err  error
}

func (f *fakeDocStore) Create(ctx context.Context, collection docstore.Collection, payload any) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeDocStore) Get(ctx context.Context, collection docstore.Collection, id string) (docstore.Document, error) {
	if f.err != nil {
		return docstore.Document{}, f.err
	}
	for _, doc := range f.docs[collection] {
		if doc.ID == id {
			return doc, nil
		}
	}
	return docstore.Document{}, docstore.ErrNotFound
}

func (f *fakeDocStore) Query(ctx context.Context, collection docstore.Collection, filter map[string]any) ([]docstore.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []docstore.Document
	for _, doc := range f.docs[collection] {
		var payload map[string]any
		if err := json.Unmarshal(doc.Payload, &payload); err != nil {
			return nil, err
		}
		match := true
		for k, v := range filter {
			if payload[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, doc)
		}
	}
	return out, nil
}

func shopDoc(id, ownerID, name string) docstore.Document {
	payload, _ := json.Marshal(map[string]any{"owner_id": ownerID, "name": name, "username": name})
	return docstore.Document{ID: id, Payload: payload}
}

func bankDoc(id, ownerID, bank string) docstore.Document {
	payload, _ := json.Marshal(map[string]any{"owner_id": ownerID, "bank_name": bank})
	return docstore.Document{ID: id, Payload: payload}
}

func TestShops_ListOwnedBy(t *testing.T) {
	store := &fakeDocStore{docs: map[docstore.Collection][]docstore.Document{
		docstore.CollectionShops: {
			shopDoc("shop-1", "seller-1", "Ceylon Crafts"),
			shopDoc("shop-2", "seller-2", "Other Shop"),
			shopDoc("shop-3", "seller-1", "Second Store"),
		},
	}}
	shops := NewShops(store, nil)

	got, err := shops.ListOwnedBy(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "shop-1", got[0].ID)
	assert.Equal(t, "Ceylon Crafts", got[0].Name)
	assert.Equal(t, "shop-3", got[1].ID)
}

func TestShops_GetEnforcesOwnership(t *testing.T) {
	store := &fakeDocStore{docs: map[docstore.Collection][]docstore.Document{
		docstore.CollectionShops: {shopDoc("shop-1", "seller-1", "Ceylon Crafts")},
	}}
	shops := NewShops(store, nil)

	shop, err := shops.Get(context.Background(), "seller-1", "shop-1")
	require.NoError(t, err)
	assert.Equal(t, "Ceylon Crafts", shop.Name)

	// Someone else's shop looks like it does not exist
	_, err = shops.Get(context.Background(), "seller-2", "shop-1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = shops.Get(context.Background(), "seller-1", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestBankAccounts_ForUser(t *testing.T) {
	store := &fakeDocStore{docs: map[docstore.Collection][]docstore.Document{
		docstore.CollectionBankAccounts: {
			bankDoc("acc-1", "seller-1", "BOC"),
			bankDoc("acc-2", "seller-2", "HNB"),
		},
	}}
	banks := NewBankAccounts(store)

	got, err := banks.ForUser(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BOC", got[0].BankName)
}

func TestBankAccounts_HasAny(t *testing.T) {
	store := &fakeDocStore{docs: map[docstore.Collection][]docstore.Document{
		docstore.CollectionBankAccounts: {bankDoc("acc-1", "seller-1", "BOC")},
	}}
	banks := NewBankAccounts(store)

	has, err := banks.HasAny(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = banks.HasAny(context.Background(), "seller-2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBankAccounts_HasAnyPropagatesError(t *testing.T) {
	store := &fakeDocStore{err: errors.New("db down")}
	banks := NewBankAccounts(store)

	_, err := banks.HasAny(context.Background(), "seller-1")
	assert.Error(t, err)
}
