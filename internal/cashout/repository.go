package cashout

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound occurs when no cash-out request exists for the identifier.
	ErrNotFound = errors.New("cash-out request not found")

	// ErrDuplicateRequest occurs when the caller-supplied id already exists.
	ErrDuplicateRequest = errors.New("cash-out request already exists")

	// ErrAlreadyProcessed occurs when settlement is attempted on a request
	// that is no longer pending.
	ErrAlreadyProcessed = errors.New("cash-out request already processed")
)

// Repository persists cash-out requests.
type Repository interface {
	Create(ctx context.Context, request Request) error
	Get(ctx context.Context, id string) (Request, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Request, error)

	// Approve moves a pending request to approved with the settlement
	// signature. Non-pending requests fail with ErrAlreadyProcessed.
	Approve(ctx context.Context, id, txSignature string, processedAt time.Time) error

	// Deny moves a pending request to denied with the failure reason.
	Deny(ctx context.Context, id, errMsg string, processedAt time.Time) error
}
