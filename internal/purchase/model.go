package purchase

import "time"

// Purchase request statuses. Card purchases normally go straight to completed
// or failed; bank transfers sit in pending until an operator approves them.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Supported payment methods.
const (
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
)

// IssuanceDecimals is the scale used when converting a purchased token amount
// into raw mint units.
const IssuanceDecimals uint8 = 9

// Request is a buyer's fiat payment awaiting token issuance. The wallet
// address is captured at creation time so a later wallet change cannot
// redirect the issuance.
type Request struct {
	ID            string
	BuyerID       string
	BuyerName     string
	WalletAddress string
	Amount        float64
	Currency      string
	PaymentMethod string
	Status        string
	TxSignature   string
	ErrorMessage  string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}

// Processed reports whether the request already reached a terminal status.
func (r Request) Processed() bool {
	return r.Status != StatusPending
}
