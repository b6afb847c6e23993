package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Collection names used across the service. Typed so a handler can't pass a
// random string into the store.
type Collection string

const (
	CollectionListings     Collection = "listings"
	CollectionShops        Collection = "shops"
	CollectionBankAccounts Collection = "bank_accounts"
)

var ErrNotFound = errors.New("docstore: document not found")

// Document is one stored record: an opaque JSON payload under a
// store-assigned id.
type Document struct {
	ID        string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Store abstracts the hosted document database. Create is assumed atomic for
// a single document: either the full payload exists afterwards or nothing
// does.
type Store interface {
	// Create inserts the payload and returns the new document's id.
	Create(ctx context.Context, collection Collection, payload any) (string, error)

	// Get fetches a single document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection Collection, id string) (Document, error)

	// Query returns every document in the collection whose payload contains
	// the given filter fields.
	Query(ctx context.Context, collection Collection, filter map[string]any) ([]Document, error)
}
