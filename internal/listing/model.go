package listing

import "time"

// Listing is an inventory item owned by exactly one merchant. Price is
// token-denominated.
type Listing struct {
	ID         string
	MerchantID string
	Name       string
	Category   string
	Price      float64
	Quantity   int
	Active     bool
	CreatedAt  time.Time
}
