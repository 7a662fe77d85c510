package purchase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Acquirer represents a connector to an external card processor.
type Acquirer interface {
	Authorize(ctx context.Context, input CardAuthorization) (AuthorizationDecision, error)
}

// AuthorizationDecision captures the acquirer's response.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// CardAuthorization encapsulates details needed for a card charge.
type CardAuthorization struct {
	CardNumber string
	Expiry     string
	CVV        string
	Amount     float64
	Currency   string
}

// StaticAcquirer simulates a successful acquirer integration.
type StaticAcquirer struct{}

// Authorize approves the charge with a synthetic reference.
func (StaticAcquirer) Authorize(_ context.Context, _ CardAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}

func validateCardNumber(card string) error {
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return fmt.Errorf("card number must be between 12 and 19 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("card number must be numeric")
		}
	}
	return nil
}
