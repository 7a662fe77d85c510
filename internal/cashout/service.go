package cashout

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
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

// ErrNotMerchant indicates the caller is not a merchant account.
var ErrNotMerchant = errors.New("account is not a merchant")

// Service settles merchant cash-out requests against the platform wallet.
type Service struct {
	repo           Repository
	accounts       account.Repository
	vault          *seedvault.Vault
	tokens         chain.TokenClient
	notifier       notification.Notifier
	platformKey    solana.PrivateKey
	commissionRate float64
	logger         *slog.Logger
}

// NewService builds a cash-out service. The platform key is the custodial
// keypair the payout tokens accumulate in, derived once at startup.
func NewService(repo Repository, accounts account.Repository, vault *seedvault.Vault,
	tokens chain.TokenClient, notifier notification.Notifier,
	platformKey solana.PrivateKey, commissionRate float64, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		accounts:       accounts,
		vault:          vault,
		tokens:         tokens,
		notifier:       notifier,
		platformKey:    platformKey,
		commissionRate: commissionRate,
		logger:         logger,
	}
}

// CreateInput captures a merchant's cash-out petition.
type CreateInput struct {
	RequestID  string
	MerchantID string
	Amount     float64
}

// Create registers a pending cash-out request for later settlement.
func (s *Service) Create(ctx context.Context, input CreateInput) (Request, error) {
	if input.RequestID == "" {
		return Request{}, errors.New("request id is required")
	}
	if input.Amount <= 0 {
		return Request{}, errors.New("amount must be positive")
	}

	merchant, err := s.accounts.Get(ctx, input.MerchantID)
	if err != nil {
		return Request{}, err
	}
	if merchant.Role != account.RoleMerchant {
		return Request{}, ErrNotMerchant
	}

	request := Request{
		ID:         input.RequestID,
		MerchantID: merchant.ID,
		Amount:     input.Amount,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return Request{}, err
	}
	return request, nil
}

// Settle executes the merchant-to-platform token transfer for a pending
// request. Only a pending request settles; a repeated call observes the
// terminal status and fails with ErrAlreadyProcessed before any on-chain
// action. On success the request is approved and the merchant receives a
// payout email with the commission breakdown. On-chain failure denies the
// request with the error recorded.
func (s *Service) Settle(ctx context.Context, requestID string) (string, error) {
	request, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if request.Processed() {
		return "", ErrAlreadyProcessed
	}

	merchant, err := s.accounts.Get(ctx, request.MerchantID)
	if err != nil {
		return "", fmt.Errorf("load merchant: %w", err)
	}
	if merchant.EncryptedMnemonic == "" {
		return "", errors.New("merchant has no custodial wallet")
	}
	if merchant.Email == "" {
		return "", errors.New("merchant has no email address")
	}

	mnemonic, err := s.vault.Decrypt(merchant.EncryptedMnemonic)
	if err != nil {
		return "", err
	}
	merchantKey, err := chain.KeypairFromMnemonic(mnemonic)
	if err != nil {
		return "", fmt.Errorf("derive merchant keypair: %w", err)
	}

	lamports, err := s.tokens.LamportBalance(ctx, merchantKey.PublicKey())
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
	raw := chain.RawAmount(request.Amount, decimals)

	balance, err := s.tokens.TokenBalance(ctx, merchantKey.PublicKey())
	if err != nil {
		return "", fmt.Errorf("check token balance: %w", err)
	}
	if balance < raw {
		return "", chain.ErrInsufficientTokens
	}

	// Each side funds its own associated token account: the merchant pays for
	// the merchant's, the platform pays for the platform's.
	if err := s.tokens.EnsureTokenAccount(ctx, merchantKey, merchantKey.PublicKey()); err != nil {
		return "", fmt.Errorf("ensure merchant token account: %w", err)
	}
	if err := s.tokens.EnsureTokenAccount(ctx, s.platformKey, s.platformKey.PublicKey()); err != nil {
		return "", fmt.Errorf("ensure platform token account: %w", err)
	}

	sig, err := s.tokens.Transfer(ctx, merchantKey, s.platformKey.PublicKey(), raw)
	if err != nil {
		s.deny(ctx, request, err)
		return "", fmt.Errorf("cash-out transfer: %w", err)
	}

	if err := s.repo.Approve(ctx, request.ID, sig.String(), time.Now().UTC()); err != nil {
		s.logger.Error("cash-out confirmed on-chain but bookkeeping failed",
			"request_id", request.ID, "tx_signature", sig.String(),
			"merchant_id", request.MerchantID, "error", err)
		return sig.String(), fmt.Errorf("transfer %s confirmed but bookkeeping failed: %w", sig, err)
	}

	s.sendReceipt(ctx, merchant, request, sig.String())
	return sig.String(), nil
}

// History returns the merchant's cash-out requests, newest first.
func (s *Service) History(ctx context.Context, merchantID string) ([]Request, error) {
	return s.repo.ListByMerchant(ctx, merchantID)
}

func (s *Service) deny(ctx context.Context, request Request, cause error) {
	if err := s.repo.Deny(ctx, request.ID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Error("cash-out denial failed",
			"request_id", request.ID, "original_error", cause, "denial_error", err)
	}
}

func (s *Service) sendReceipt(ctx context.Context, merchant account.Account, request Request, sig string) {
	if s.notifier == nil {
		return
	}
	commission := request.Amount * s.commissionRate
	net := request.Amount - commission
	msg := notification.Message{
		Kind:    notification.KindCashoutReceipt,
		To:      merchant.Email,
		Subject: fmt.Sprintf("Cash-out approved: %.2f tokens", request.Amount),
		HTML: fmt.Sprintf(`<p>Hello %s,</p>
<p>Your cash-out request has been settled.</p>
<ul>
<li>Amount: %.2f tokens</li>
<li>Commission (%.0f%%): %.2f</li>
<li>Net payout: %.2f</li>
<li>Transaction: %s</li>
</ul>`, merchant.Name, request.Amount, s.commissionRate*100, commission, net, sig),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("cash-out receipt email failed",
			"request_id", request.ID, "merchant_id", merchant.ID, "error", err)
	}
}
