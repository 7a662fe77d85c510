package listing

import (
	"context"
	"errors"
)

var (
	// ErrNotFound occurs when no listing exists for the identifier.
	ErrNotFound = errors.New("listing not found")

	// ErrInsufficientStock occurs when a reservation would drive the
	// quantity-on-hand negative. It is detected before any on-chain action.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository persists merchant listings.
type Repository interface {
	Create(ctx context.Context, listing Listing) error
	Get(ctx context.Context, id string) (Listing, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Listing, error)

	// Reserve decrements quantity-on-hand by qty, failing with
	// ErrInsufficientStock rather than going negative.
	Reserve(ctx context.Context, id string, qty int) error

	// Restore adds qty back after a failed settlement.
	Restore(ctx context.Context, id string, qty int) error
}
