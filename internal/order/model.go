package order

import "time"

const (
	// StatusPendingApproval is the initial status after add-to-cart.
	StatusPendingApproval = "pending_approval"
	// StatusReadyToRedeem indicates the merchant approved the order.
	StatusReadyToRedeem = "ready_to_redeem"
	// StatusCompleted indicates a confirmed on-chain redemption.
	StatusCompleted = "completed"
	// StatusRejected indicates the merchant declined the order.
	StatusRejected = "rejected"
	// StatusFailed indicates a settlement error.
	StatusFailed = "failed"
	// StatusCancelled indicates a buyer-initiated cancellation.
	StatusCancelled = "cancelled"
)

// Order is a cart order between a buyer and a merchant. It is stored as a
// single record; the buyer's cart and the merchant's pending/recent views are
// projections over it, so the two sides cannot diverge.
type Order struct {
	ID           string
	BuyerID      string
	BuyerName    string
	MerchantID   string
	MerchantName string
	ListingID    string
	ListingName  string
	Price        float64
	Quantity     int
	Status       string
	RedeemCode   string
	TxSignature  string
	ErrorMessage string
	RedeemedAt   *time.Time
	CreatedAt    time.Time
}

// Total is the token amount the redemption transfers.
func (o Order) Total() float64 {
	return o.Price * float64(o.Quantity)
}

// Terminal reports whether the order reached a final status. Terminal orders
// are never mutated again.
func (o Order) Terminal() bool {
	switch o.Status {
	case StatusCompleted, StatusRejected, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
