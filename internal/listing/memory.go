package listing

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Listing
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Listing)}
}

func (r *memoryRepository) Create(_ context.Context, listing Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[listing.ID] = listing
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.storage[id]
	if !ok {
		return Listing{}, ErrNotFound
	}
	return listing, nil
}

func (r *memoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var listings []Listing
	for _, l := range r.storage {
		if l.MerchantID == merchantID {
			listings = append(listings, l)
		}
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

func (r *memoryRepository) Reserve(_ context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if listing.Quantity < qty {
		return ErrInsufficientStock
	}
	listing.Quantity -= qty
	r.storage[id] = listing
	return nil
}

func (r *memoryRepository) Restore(_ context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	listing.Quantity += qty
	r.storage[id] = listing
	return nil
}
