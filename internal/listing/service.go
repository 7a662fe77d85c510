package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tokenmart/tokenmart/internal/account"
)

// Service manages merchant inventory.
type Service struct {
	repo     Repository
	accounts account.Repository
}

// NewService builds a listing service instance.
func NewService(repo Repository, accounts account.Repository) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// CreateInput captures data required to create a listing.
type CreateInput struct {
	MerchantID string
	Name       string
	Category   string
	Price      float64
	Quantity   int
}

// Create adds an inventory item for a merchant.
func (s *Service) Create(ctx context.Context, input CreateInput) (Listing, error) {
	if input.Name == "" {
		return Listing{}, errors.New("name is required")
	}
	if input.Price <= 0 {
		return Listing{}, errors.New("price must be positive")
	}
	if input.Quantity < 0 {
		return Listing{}, errors.New("quantity must not be negative")
	}

	merchant, err := s.accounts.Get(ctx, input.MerchantID)
	if err != nil {
		return Listing{}, err
	}
	if merchant.Role != account.RoleMerchant {
		return Listing{}, fmt.Errorf("account %s is not a merchant", input.MerchantID)
	}

	listing := Listing{
		ID:         uuid.New().String(),
		MerchantID: merchant.ID,
		Name:       input.Name,
		Category:   input.Category,
		Price:      input.Price,
		Quantity:   input.Quantity,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return Listing{}, err
	}

	return listing, nil
}

// ListByMerchant returns a merchant's inventory.
func (s *Service) ListByMerchant(ctx context.Context, merchantID string) ([]Listing, error) {
	return s.repo.ListByMerchant(ctx, merchantID)
}
