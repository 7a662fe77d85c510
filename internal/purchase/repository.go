package purchase

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound occurs when no purchase request exists for the identifier.
	ErrNotFound = errors.New("purchase request not found")

	// ErrDuplicateRequest occurs when the caller-supplied id already exists.
	ErrDuplicateRequest = errors.New("purchase request already exists")

	// ErrAlreadyProcessed occurs when issuance is attempted on a request
	// that is no longer pending.
	ErrAlreadyProcessed = errors.New("purchase request already processed")
)

// Repository persists purchase requests.
type Repository interface {
	Create(ctx context.Context, request Request) error
	Get(ctx context.Context, id string) (Request, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Request, error)

	// Complete moves a pending request to completed with the issuance
	// signature. Non-pending requests fail with ErrAlreadyProcessed.
	Complete(ctx context.Context, id, txSignature string, processedAt time.Time) error

	// Fail moves a pending request to failed with the failure reason.
	Fail(ctx context.Context, id, errMsg string, processedAt time.Time) error
}
