package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/listing"
)

type memoryRepository struct {
	mu       sync.Mutex
	storage  map[string]Order
	accounts account.Repository
	listings listing.Repository
}

// NewMemoryRepository constructs an in-memory repository for tests and dev
// mode. It needs the account and listing repositories because settlement
// mutations span all three entities.
func NewMemoryRepository(accounts account.Repository, listings listing.Repository) Repository {
	return &memoryRepository{
		storage:  make(map[string]Order),
		accounts: accounts,
		listings: listings,
	}
}

func (r *memoryRepository) Create(_ context.Context, order Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[order.ID]; exists {
		return ErrDuplicateOrder
	}
	r.storage[order.ID] = order
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.storage[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (r *memoryRepository) ListByBuyer(_ context.Context, buyerID string) ([]Order, error) {
	return r.filter(func(o Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *memoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Order, error) {
	return r.filter(func(o Order) bool { return o.MerchantID == merchantID }), nil
}

func (r *memoryRepository) SetStatus(_ context.Context, id string, from []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	for _, status := range from {
		if order.Status == status {
			order.Status = to
			r.storage[id] = order
			return nil
		}
	}
	return ErrInvalidTransition
}

func (r *memoryRepository) Complete(ctx context.Context, id, txSignature string, redeemedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if order.Terminal() {
		return ErrAlreadySettled
	}

	total := order.Total()
	if err := r.accounts.AdjustBalance(ctx, order.BuyerID, -total); err != nil {
		return err
	}
	if err := r.accounts.AdjustBalance(ctx, order.MerchantID, total); err != nil {
		return err
	}

	at := redeemedAt.UTC()
	order.Status = StatusCompleted
	order.TxSignature = txSignature
	order.ErrorMessage = ""
	order.RedeemedAt = &at
	r.storage[id] = order
	return nil
}

func (r *memoryRepository) Fail(ctx context.Context, id, status, errMsg string) error {
	if status != StatusFailed && status != StatusRejected && status != StatusCancelled {
		return ErrInvalidTransition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if order.Terminal() {
		return ErrAlreadySettled
	}

	if err := r.listings.Restore(ctx, order.ListingID, order.Quantity); err != nil {
		return err
	}

	order.Status = status
	order.ErrorMessage = errMsg
	r.storage[id] = order
	return nil
}

func (r *memoryRepository) filter(keep func(Order) bool) []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []Order
	for _, o := range r.storage {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
