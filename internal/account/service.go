package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

// ErrSeedNotFound occurs when seed retrieval is requested for an account
// without a stored mnemonic.
var ErrSeedNotFound = errors.New("seed phrase not found")

// Service manages account lifecycle and custodial wallet key material.
type Service struct {
	repo  Repository
	vault *seedvault.Vault
}

// NewService creates a new account service.
func NewService(repo Repository, vault *seedvault.Vault) *Service {
	return &Service{repo: repo, vault: vault}
}

// SignupInput captures data required to register an account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Signup registers a user or merchant account with a hashed password.
func (s *Service) Signup(ctx context.Context, input SignupInput) (Account, error) {
	switch input.Role {
	case RoleUser, RoleMerchant:
	default:
		return Account{}, fmt.Errorf("role must be %q or %q", RoleUser, RoleMerchant)
	}
	if input.Email == "" {
		return Account{}, errors.New("email is required")
	}
	if len(input.Password) < 8 {
		return Account{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:           uuid.New().String(),
		Role:         input.Role,
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}

	return account, nil
}

// Get retrieves an account by identifier.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// ProvisionResult carries the one-time plaintext mnemonic back to the caller.
type ProvisionResult struct {
	WalletAddress string
	Mnemonic      string
}

// ProvisionWallet generates a custodial keypair for the account, stores the
// address and encrypted mnemonic, and returns the plaintext mnemonic exactly
// once. The plaintext is never persisted.
func (s *Service) ProvisionWallet(ctx context.Context, accountID, kind string) (ProvisionResult, error) {
	acct, err := s.load(ctx, accountID, kind)
	if err != nil {
		return ProvisionResult{}, err
	}
	if acct.HasWallet() {
		return ProvisionResult{}, ErrWalletExists
	}

	mnemonic, err := chain.NewMnemonic()
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("generate mnemonic: %w", err)
	}
	key, err := chain.KeypairFromMnemonic(mnemonic)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("derive keypair: %w", err)
	}

	encrypted, err := s.vault.Encrypt(mnemonic)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("encrypt mnemonic: %w", err)
	}

	address := key.PublicKey().String()
	if err := s.repo.SetWallet(ctx, acct.ID, address, encrypted); err != nil {
		return ProvisionResult{}, err
	}

	return ProvisionResult{WalletAddress: address, Mnemonic: mnemonic}, nil
}

// RevealSeed decrypts and returns the stored mnemonic for its owner.
func (s *Service) RevealSeed(ctx context.Context, accountID, kind string) (string, error) {
	acct, err := s.load(ctx, accountID, kind)
	if err != nil {
		return "", err
	}
	if acct.EncryptedMnemonic == "" {
		return "", ErrSeedNotFound
	}
	return s.vault.Decrypt(acct.EncryptedMnemonic)
}

// load fetches the account and checks the caller-declared kind against the
// stored role. A kind mismatch behaves like a missing account.
func (s *Service) load(ctx context.Context, accountID, kind string) (Account, error) {
	if accountID == "" {
		return Account{}, errors.New("account id is required")
	}
	acct, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if kind != "" && acct.Role != kind {
		return Account{}, ErrNotFound
	}
	return acct, nil
}
