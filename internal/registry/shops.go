package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/cache"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
)

// Shop is the seller-facing storefront a listing is published under.
type Shop struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Logo     string `json:"logo,omitempty"`
}

const shopCacheTTL = 5 * time.Minute

// Shops reads the shop collection, with an optional Redis read-through.
// A seller's shop list barely changes during an authoring session, so a
// short TTL is plenty.
type Shops struct {
	store docstore.Store
	cache *cache.RedisClient // nil disables caching
}

func NewShops(store docstore.Store, c *cache.RedisClient) *Shops {
	return &Shops{store: store, cache: c}
}

// ListOwnedBy returns every shop owned by the user, oldest first.
func (s *Shops) ListOwnedBy(ctx context.Context, userID string) ([]Shop, error) {
	cacheKey := "shops:owner:" + userID

	if s.cache != nil {
		if cached, found, err := cache.Get[[]Shop](s.cache, ctx, cacheKey); err == nil && found {
			return *cached, nil
		}
	}

	docs, err := s.store.Query(ctx, docstore.CollectionShops, map[string]any{"owner_id": userID})
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}

	shops := make([]Shop, 0, len(docs))
	for _, doc := range docs {
		var shop Shop
		if err := json.Unmarshal(doc.Payload, &shop); err != nil {
			return nil, fmt.Errorf("decode shop %s: %w", doc.ID, err)
		}
		shop.ID = doc.ID
		shops = append(shops, shop)
	}

	if s.cache != nil {
		// Best effort; a cold cache is not an error
		_ = cache.Set(s.cache, ctx, cacheKey, shops, shopCacheTTL)
	}

	return shops, nil
}

// Get fetches one shop and verifies ownership.
func (s *Shops) Get(ctx context.Context, userID, shopID string) (Shop, error) {
	doc, err := s.store.Get(ctx, docstore.CollectionShops, shopID)
	if err != nil {
		return Shop{}, err
	}

	var shop Shop
	if err := json.Unmarshal(doc.Payload, &shop); err != nil {
		return Shop{}, fmt.Errorf("decode shop %s: %w", doc.ID, err)
	}
	shop.ID = doc.ID

	if shop.OwnerID != userID {
		return Shop{}, docstore.ErrNotFound
	}
	return shop, nil
}
