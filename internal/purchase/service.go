package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/notification"
)

// ErrNoWallet indicates the buyer has no custodial wallet to issue into.
var ErrNoWallet = errors.New("buyer has no custodial wallet")

// Service handles the fiat on-ramp: a buyer pays in fiat and the platform
// issues tokens from the issuer wallet into the buyer's custodial wallet.
type Service struct {
	repo      Repository
	accounts  account.Repository
	tokens    chain.TokenClient
	acquirer  Acquirer
	notifier  notification.Notifier
	issuerKey solana.PrivateKey
	logger    *slog.Logger
}

// NewService builds a purchase service. The issuer key holds the platform's
// token float and funds every account creation on the issuance path.
func NewService(repo Repository, accounts account.Repository, tokens chain.TokenClient,
	acquirer Acquirer, notifier notification.Notifier,
	issuerKey solana.PrivateKey, logger *slog.Logger) *Service {
	if acquirer == nil {
		acquirer = StaticAcquirer{}
	}
	return &Service{
		repo:      repo,
		accounts:  accounts,
		tokens:    tokens,
		acquirer:  acquirer,
		notifier:  notifier,
		issuerKey: issuerKey,
		logger:    logger,
	}
}

// Card carries the card details for card purchases.
type Card struct {
	Number string
	Expiry string
	CVV    string
}

// CreateInput captures a buyer's purchase petition.
type CreateInput struct {
	RequestID     string
	BuyerID       string
	Amount        float64
	Currency      string
	PaymentMethod string
	Card          Card
}

// Create registers a purchase request. Card purchases are authorized through
// the acquirer and issued immediately; bank transfers stay pending until an
// operator confirms the funds arrived and calls Approve.
func (s *Service) Create(ctx context.Context, input CreateInput) (Request, error) {
	if input.RequestID == "" {
		return Request{}, errors.New("request id is required")
	}
	if input.Amount <= 0 {
		return Request{}, errors.New("amount must be positive")
	}
	switch input.PaymentMethod {
	case MethodCard, MethodBankTransfer:
	default:
		return Request{}, fmt.Errorf("payment method must be %q or %q", MethodCard, MethodBankTransfer)
	}

	buyer, err := s.accounts.Get(ctx, input.BuyerID)
	if err != nil {
		return Request{}, err
	}
	if !buyer.HasWallet() {
		return Request{}, ErrNoWallet
	}

	request := Request{
		ID:            input.RequestID,
		BuyerID:       buyer.ID,
		BuyerName:     buyer.Name,
		WalletAddress: buyer.WalletAddress,
		Amount:        input.Amount,
		Currency:      input.Currency,
		PaymentMethod: input.PaymentMethod,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if input.PaymentMethod == MethodCard {
		if err := validateCardNumber(input.Card.Number); err != nil {
			return Request{}, err
		}
		if _, err := s.acquirer.Authorize(ctx, CardAuthorization{
			CardNumber: input.Card.Number,
			Expiry:     input.Card.Expiry,
			CVV:        input.Card.CVV,
			Amount:     input.Amount,
			Currency:   input.Currency,
		}); err != nil {
			return Request{}, fmt.Errorf("card authorization: %w", err)
		}
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return Request{}, err
	}

	if input.PaymentMethod == MethodCard {
		if _, err := s.Issue(ctx, request.ID); err != nil {
			return s.repo.Get(ctx, request.ID)
		}
	}

	return s.repo.Get(ctx, request.ID)
}

// Approve triggers issuance for a bank-transfer purchase once the operator has
// confirmed the incoming funds.
func (s *Service) Approve(ctx context.Context, requestID string) (string, error) {
	return s.Issue(ctx, requestID)
}

// Issue transfers the purchased tokens from the issuer wallet into the buyer's
// wallet. Only a pending request issues. The issuer pays for any token account
// that has to be created. A failed transfer is terminal: the request moves to
// failed and a fresh purchase has to be made.
func (s *Service) Issue(ctx context.Context, requestID string) (string, error) {
	request, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if request.Processed() {
		return "", ErrAlreadyProcessed
	}

	buyerWallet, err := solana.PublicKeyFromBase58(request.WalletAddress)
	if err != nil {
		return "", fmt.Errorf("parse buyer wallet address: %w", err)
	}

	raw := chain.RawAmount(request.Amount, IssuanceDecimals)

	if err := s.tokens.EnsureTokenAccount(ctx, s.issuerKey, buyerWallet); err != nil {
		return "", fmt.Errorf("ensure buyer token account: %w", err)
	}

	sig, err := s.tokens.Transfer(ctx, s.issuerKey, buyerWallet, raw)
	if err != nil {
		s.fail(ctx, request, err)
		return "", fmt.Errorf("issuance transfer: %w", err)
	}

	if err := s.repo.Complete(ctx, request.ID, sig.String(), time.Now().UTC()); err != nil {
		s.logger.Error("issuance confirmed on-chain but bookkeeping failed",
			"request_id", request.ID, "tx_signature", sig.String(),
			"buyer_id", request.BuyerID, "error", err)
		return sig.String(), fmt.Errorf("transfer %s confirmed but bookkeeping failed: %w", sig, err)
	}

	s.sendReceipt(ctx, request, sig.String())
	return sig.String(), nil
}

// History returns the buyer's purchase requests, newest first.
func (s *Service) History(ctx context.Context, buyerID string) ([]Request, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

func (s *Service) fail(ctx context.Context, request Request, cause error) {
	if err := s.repo.Fail(ctx, request.ID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Error("purchase failure could not be recorded",
			"request_id", request.ID, "original_error", cause, "record_error", err)
	}
}

func (s *Service) sendReceipt(ctx context.Context, request Request, sig string) {
	if s.notifier == nil {
		return
	}
	buyer, err := s.accounts.Get(ctx, request.BuyerID)
	if err != nil || buyer.Email == "" {
		return
	}
	msg := notification.Message{
		Kind:    notification.KindPurchaseReceipt,
		To:      buyer.Email,
		Subject: fmt.Sprintf("Token purchase confirmed: %.2f", request.Amount),
		HTML: fmt.Sprintf(`<p>Hello %s,</p>
<p>Your purchase of %.2f tokens has been issued to wallet %s.</p>
<p>Transaction: %s</p>`, buyer.Name, request.Amount, request.WalletAddress, sig),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("purchase receipt email failed",
			"request_id", request.ID, "buyer_id", request.BuyerID, "error", err)
	}
}
