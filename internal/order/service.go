package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/listing"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

var (
	// ErrNotBuyer indicates the caller does not own the order being redeemed.
	ErrNotBuyer = errors.New("caller is not the order's buyer")

	// ErrNotMerchant indicates the caller does not own the order being approved.
	ErrNotMerchant = errors.New("caller is not the order's merchant")
)

// Service orchestrates the cart workflow and the redemption settlement.
type Service struct {
	repo     Repository
	accounts account.Repository
	listings listing.Repository
	vault    *seedvault.Vault
	tokens   chain.TokenClient
	logger   *slog.Logger
}

// NewService builds an order service instance.
func NewService(repo Repository, accounts account.Repository, listings listing.Repository,
	vault *seedvault.Vault, tokens chain.TokenClient, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		listings: listings,
		vault:    vault,
		tokens:   tokens,
		logger:   logger,
	}
}

// AddInput captures data required to place a listing in the buyer's cart.
// The order id is caller-supplied and must be unique.
type AddInput struct {
	OrderID    string
	BuyerID    string
	ListingID  string
	Quantity   int
	RedeemCode string
}

// AddToCart reserves inventory and creates the order in pending_approval.
// The inventory decrement is optimistic: it happens at add-to-cart time and
// is restored if the order later fails or is rejected.
func (s *Service) AddToCart(ctx context.Context, input AddInput) (Order, error) {
	if input.OrderID == "" {
		return Order{}, errors.New("order id is required")
	}
	if input.Quantity <= 0 {
		return Order{}, errors.New("quantity must be positive")
	}

	buyer, err := s.accounts.Get(ctx, input.BuyerID)
	if err != nil {
		return Order{}, err
	}

	item, err := s.listings.Get(ctx, input.ListingID)
	if err != nil {
		return Order{}, err
	}
	if !item.Active {
		return Order{}, fmt.Errorf("listing %s is not active", item.ID)
	}

	merchant, err := s.accounts.Get(ctx, item.MerchantID)
	if err != nil {
		return Order{}, err
	}

	if err := s.listings.Reserve(ctx, item.ID, input.Quantity); err != nil {
		return Order{}, err
	}

	order := Order{
		ID:           input.OrderID,
		BuyerID:      buyer.ID,
		BuyerName:    buyer.Name,
		MerchantID:   merchant.ID,
		MerchantName: merchant.Name,
		ListingID:    item.ID,
		ListingName:  item.Name,
		Price:        item.Price,
		Quantity:     input.Quantity,
		Status:       StatusPendingApproval,
		RedeemCode:   input.RedeemCode,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if restoreErr := s.listings.Restore(ctx, item.ID, input.Quantity); restoreErr != nil {
			s.logger.Error("restore inventory after create failure",
				"order_id", input.OrderID, "listing_id", item.ID, "error", restoreErr)
		}
		return Order{}, err
	}

	return order, nil
}

// Approve moves a pending order to ready_to_redeem, or rejects it and
// restores the reserved inventory. Only the order's merchant may decide.
func (s *Service) Approve(ctx context.Context, merchantID, orderID string, approve bool) (Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.MerchantID != merchantID {
		return Order{}, ErrNotMerchant
	}

	if approve {
		err = s.repo.SetStatus(ctx, orderID, []string{StatusPendingApproval}, StatusReadyToRedeem)
	} else {
		err = s.repo.Fail(ctx, orderID, StatusRejected, "rejected by merchant")
	}
	if err != nil {
		return Order{}, err
	}

	return s.repo.Get(ctx, orderID)
}

// RedeemInput identifies the order to settle and the caller claiming to be
// its buyer.
type RedeemInput struct {
	OrderID string
	BuyerID string
}

// Redeem executes the buyer-to-merchant token transfer and finalizes the
// bookkeeping. The flow is strictly ordered: all validation first (no
// mutation), then the on-chain transfer, then one store transaction. The
// store is only touched after the chain confirms, so a buyer can never see a
// completed order before funds moved. On-chain failures trigger a
// best-effort compensation that marks the order failed and restores the
// reserved inventory; compensation failures are logged, never returned in
// place of the original error.
func (s *Service) Redeem(ctx context.Context, input RedeemInput) (string, error) {
	order, err := s.repo.Get(ctx, input.OrderID)
	if err != nil {
		return "", err
	}
	if order.Terminal() {
		return "", ErrAlreadySettled
	}
	if input.BuyerID != "" && order.BuyerID != input.BuyerID {
		return "", ErrNotBuyer
	}
	if order.Price <= 0 {
		return "", errors.New("order price must be positive")
	}

	buyer, err := s.accounts.Get(ctx, order.BuyerID)
	if err != nil {
		return "", fmt.Errorf("load buyer: %w", err)
	}
	if buyer.EncryptedMnemonic == "" {
		return "", errors.New("buyer has no custodial wallet")
	}

	merchant, err := s.accounts.Get(ctx, order.MerchantID)
	if err != nil {
		return "", fmt.Errorf("load merchant: %w", err)
	}
	if !merchant.HasWallet() {
		return "", errors.New("merchant has no custodial wallet")
	}
	merchantKey, err := solana.PublicKeyFromBase58(merchant.WalletAddress)
	if err != nil {
		return "", fmt.Errorf("parse merchant wallet address: %w", err)
	}

	mnemonic, err := s.vault.Decrypt(buyer.EncryptedMnemonic)
	if err != nil {
		return "", err
	}
	buyerKey, err := chain.KeypairFromMnemonic(mnemonic)
	if err != nil {
		return "", fmt.Errorf("derive buyer keypair: %w", err)
	}

	// Balance checks are pure validation: nothing has been written yet, so a
	// shortfall leaves the order in its pre-settlement status.
	lamports, err := s.tokens.LamportBalance(ctx, buyerKey.PublicKey())
	if err != nil {
		return "", fmt.Errorf("check fee balance: %w", err)
	}
	if lamports < chain.MinFeeLamports {
		return "", chain.ErrInsufficientFeeBalance
	}

	decimals, err := s.tokens.MintDecimals(ctx)
	if err != nil {
		return "", fmt.Errorf("read mint decimals: %w", err)
	}
	raw := chain.RawAmount(order.Total(), decimals)

	tokenBalance, err := s.tokens.TokenBalance(ctx, buyerKey.PublicKey())
	if err != nil {
		return "", fmt.Errorf("check token balance: %w", err)
	}
	if tokenBalance < raw {
		return "", chain.ErrInsufficientTokens
	}

	sig, err := s.tokens.Transfer(ctx, buyerKey, merchantKey, raw)
	if err != nil {
		s.compensate(ctx, order, err)
		return "", fmt.Errorf("redemption transfer: %w", err)
	}

	if err := s.repo.Complete(ctx, order.ID, sig.String(), time.Now().UTC()); err != nil {
		// Funds moved but bookkeeping did not. Log everything needed for a
		// manual reconciliation keyed by the transaction signature.
		s.logger.Error("redemption confirmed on-chain but bookkeeping failed",
			"order_id", order.ID, "tx_signature", sig.String(),
			"buyer_id", order.BuyerID, "merchant_id", order.MerchantID, "error", err)
		return sig.String(), fmt.Errorf("transfer %s confirmed but bookkeeping failed: %w", sig, err)
	}

	return sig.String(), nil
}

// Cart returns the buyer's cart projection.
func (s *Service) Cart(ctx context.Context, buyerID string) ([]Order, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// MerchantOrders splits the merchant's orders into the pending and resolved
// projections.
func (s *Service) MerchantOrders(ctx context.Context, merchantID string) (pending, recent []Order, err error) {
	orders, err := s.repo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, nil, err
	}
	for _, o := range orders {
		if o.Terminal() {
			recent = append(recent, o)
		} else {
			pending = append(pending, o)
		}
	}
	return pending, recent, nil
}

func (s *Service) compensate(ctx context.Context, order Order, cause error) {
	if err := s.repo.Fail(ctx, order.ID, StatusFailed, cause.Error()); err != nil {
		s.logger.Error("redemption compensation failed",
			"order_id", order.ID, "listing_id", order.ListingID,
			"original_error", cause, "compensation_error", err)
	}
}
