package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound occurs when no account exists for the identifier.
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken occurs when the signup email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrWalletExists occurs when a custodial wallet was already provisioned
	// for the account. Wallet fields are written once and never overwritten.
	ErrWalletExists = errors.New("wallet already exists")
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)

	// SetWallet stores the wallet address and encrypted mnemonic. It fails
	// with ErrWalletExists when a wallet address is already present, so a
	// concurrent provisioning attempt cannot overwrite key material.
	SetWallet(ctx context.Context, id, walletAddress, encryptedMnemonic string) error

	// AdjustBalance moves the display balance by delta. Only the settlement
	// routines call this, and only after on-chain confirmation.
	AdjustBalance(ctx context.Context, id string, delta float64) error
}
