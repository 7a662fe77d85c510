package order

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound occurs when no order exists for the identifier.
	ErrNotFound = errors.New("order not found")

	// ErrDuplicateOrder occurs when the caller-supplied order id already exists.
	ErrDuplicateOrder = errors.New("order id already exists")

	// ErrAlreadySettled occurs when a settlement races or repeats: the order
	// is already in a terminal status, so the second writer stops cleanly.
	ErrAlreadySettled = errors.New("order already settled")

	// ErrInvalidTransition occurs when a status change is not allowed from
	// the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository persists orders. The settlement mutations re-read the order
// inside the store transaction so concurrent settlements serialize on the row
// rather than trusting the caller's stale copy.
type Repository interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Order, error)

	// SetStatus transitions the order from one of the expected statuses,
	// failing with ErrInvalidTransition otherwise.
	SetStatus(ctx context.Context, id string, from []string, to string) error

	// Complete atomically marks the order completed with the transaction
	// signature and timestamp, debits the buyer's display balance, and
	// credits the merchant's, all in one store transaction.
	Complete(ctx context.Context, id, txSignature string, redeemedAt time.Time) error

	// Fail atomically moves a pre-completion order to a terminal failure
	// status (failed or rejected), records the message, and restores the
	// reserved listing quantity.
	Fail(ctx context.Context, id, status, errMsg string) error
}
