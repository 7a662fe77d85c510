package chain

import (
	"context"
	"errors"
	"math"

	"github.com/gagliardetto/solana-go"
)

// MinFeeLamports is the minimum native balance a sender must hold to cover
// transaction fees before a transfer is attempted.
const MinFeeLamports uint64 = 5000

var (
	// ErrInsufficientTokens occurs when the sender's token balance cannot cover
	// the requested raw amount.
	ErrInsufficientTokens = errors.New("insufficient token balance")

	// ErrInsufficientFeeBalance occurs when the sender cannot cover network fees.
	ErrInsufficientFeeBalance = errors.New("insufficient balance for network fees")
)

// TokenClient defines the contract implemented by blockchain backends
// (the Solana RPC client in production, the simulator in tests).
type TokenClient interface {
	// LamportBalance returns the native balance of the owner's wallet.
	LamportBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)

	// TokenBalance returns the owner's token balance in raw on-chain units.
	// An owner without a token account holds zero.
	TokenBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)

	// MintDecimals reads the token's decimal precision from its on-chain mint.
	MintDecimals(ctx context.Context) (uint8, error)

	// EnsureTokenAccount creates the owner's associated token account if it
	// does not exist yet. The payer funds the account creation.
	EnsureTokenAccount(ctx context.Context, payer solana.PrivateKey, owner solana.PublicKey) error

	// Transfer moves rawAmount token units from the sender's wallet to the
	// recipient, signed by the sender, and waits for network confirmation.
	// The recipient's token account is created on the sender's dime if missing.
	Transfer(ctx context.Context, sender solana.PrivateKey, recipient solana.PublicKey, rawAmount uint64) (solana.Signature, error)
}

// RawAmount converts a human-readable token amount to the smallest on-chain
// unit, rounding to the nearest integer unit.
func RawAmount(amount float64, decimals uint8) uint64 {
	return uint64(math.Round(amount * math.Pow10(int(decimals))))
}
