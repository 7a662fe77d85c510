package chain

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// SimulatedTransfer records a transfer executed against the Simulator.
type SimulatedTransfer struct {
	From      solana.PublicKey
	To        solana.PublicKey
	RawAmount uint64
	Signature solana.Signature
}

// Simulator is a concurrency-safe in-memory TokenClient useful for unit tests.
type Simulator struct {
	mu          sync.Mutex
	decimals    uint8
	lamports    map[solana.PublicKey]uint64
	tokens      map[solana.PublicKey]uint64
	transfers   []SimulatedTransfer
	transferErr error
}

// NewSimulator creates a simulator whose mint reports the given decimals.
func NewSimulator(decimals uint8) *Simulator {
	return &Simulator{
		decimals: decimals,
		lamports: make(map[solana.PublicKey]uint64),
		tokens:   make(map[solana.PublicKey]uint64),
	}
}

// SeedLamports sets the native balance for an owner.
func (s *Simulator) SeedLamports(owner solana.PublicKey, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lamports[owner] = amount
}

// SeedTokens sets the raw token balance for an owner.
func (s *Simulator) SeedTokens(owner solana.PublicKey, raw uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[owner] = raw
}

// FailTransfers makes every subsequent Transfer return err. Pass nil to reset.
func (s *Simulator) FailTransfers(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferErr = err
}

// Transfers returns the transfers executed so far.
func (s *Simulator) Transfers() []SimulatedTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SimulatedTransfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

func (s *Simulator) LamportBalance(_ context.Context, owner solana.PublicKey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lamports[owner], nil
}

func (s *Simulator) TokenBalance(_ context.Context, owner solana.PublicKey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[owner], nil
}

func (s *Simulator) MintDecimals(_ context.Context) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decimals, nil
}

func (s *Simulator) EnsureTokenAccount(_ context.Context, _ solana.PrivateKey, owner solana.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[owner]; !exists {
		s.tokens[owner] = 0
	}
	return nil
}

func (s *Simulator) Transfer(_ context.Context, sender solana.PrivateKey, recipient solana.PublicKey, rawAmount uint64) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transferErr != nil {
		return solana.Signature{}, s.transferErr
	}

	from := sender.PublicKey()
	if s.tokens[from] < rawAmount {
		return solana.Signature{}, ErrInsufficientTokens
	}

	s.tokens[from] -= rawAmount
	s.tokens[recipient] += rawAmount

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return solana.Signature{}, err
	}

	s.transfers = append(s.transfers, SimulatedTransfer{
		From:      from,
		To:        recipient,
		RawAmount: rawAmount,
		Signature: sig,
	})
	return sig, nil
}
