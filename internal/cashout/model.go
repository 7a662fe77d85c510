package cashout

import "time"

// Cash-out request statuses. A request settles exactly once: pending moves to
// approved or denied and never back.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Request is a merchant's petition to convert token balance into a fiat
// payout. Settlement moves the tokens from the merchant's custodial wallet to
// the platform wallet.
type Request struct {
	ID           string
	MerchantID   string
	Amount       float64
	Status       string
	TxSignature  string
	ErrorMessage string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}

// Processed reports whether the request already reached a terminal status.
func (r Request) Processed() bool {
	return r.Status != StatusPending
}
