package account

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Account
	byEmail map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		storage: make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}
	r.storage[account.ID] = account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.storage[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.storage[id], nil
}

func (r *memoryRepository) SetWallet(_ context.Context, id, walletAddress, encryptedMnemonic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if account.WalletAddress != "" {
		return ErrWalletExists
	}
	account.WalletAddress = walletAddress
	account.EncryptedMnemonic = encryptedMnemonic
	r.storage[id] = account
	return nil
}

func (r *memoryRepository) AdjustBalance(_ context.Context, id string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	account.Balance += delta
	r.storage[id] = account
	return nil
}
