package account

import (
	"context"
	"errors"
	"testing"

	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	vault, err := seedvault.New("test-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	repo := NewMemoryRepository()
	return NewService(repo, vault), repo
}

func signup(t *testing.T, svc *Service, role string) Account {
	t.Helper()
	acct, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Test " + role,
		Email:    role + "@example.com",
		Password: "correct-horse",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", role, err)
	}
	return acct
}

func TestSignupRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.c", Password: "longenough", Role: "admin"}); err == nil {
		t.Fatal("expected admin signup to be rejected")
	}
	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.c", Password: "short", Role: RoleUser}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestProvisionWalletOnce(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	acct := signup(t, svc, RoleUser)

	res, err := svc.ProvisionWallet(ctx, acct.ID, RoleUser)
	if err != nil {
		t.Fatalf("provision wallet: %v", err)
	}
	if res.WalletAddress == "" || res.Mnemonic == "" {
		t.Fatalf("expected address and mnemonic, got %+v", res)
	}

	// The derived keypair must match the returned address.
	key, err := chain.KeypairFromMnemonic(res.Mnemonic)
	if err != nil {
		t.Fatalf("derive from returned mnemonic: %v", err)
	}
	if key.PublicKey().String() != res.WalletAddress {
		t.Fatal("returned mnemonic does not derive the stored address")
	}

	// Plaintext is never persisted.
	stored, err := repo.Get(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.EncryptedMnemonic == res.Mnemonic || stored.EncryptedMnemonic == "" {
		t.Fatal("expected encrypted mnemonic at rest")
	}

	// A second provisioning attempt must conflict and not alter the address.
	if _, err := svc.ProvisionWallet(ctx, acct.ID, RoleUser); !errors.Is(err, ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists, got %v", err)
	}
	after, _ := repo.Get(ctx, acct.ID)
	if after.WalletAddress != res.WalletAddress {
		t.Fatal("wallet address changed on conflicting provision")
	}
}

func TestProvisionWalletMissingAccount(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ProvisionWallet(context.Background(), "nope", RoleUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProvisionWalletKindMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	acct := signup(t, svc, RoleUser)
	if _, err := svc.ProvisionWallet(context.Background(), acct.ID, RoleMerchant); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on kind mismatch, got %v", err)
	}
}

func TestRevealSeed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acct := signup(t, svc, RoleMerchant)

	if _, err := svc.RevealSeed(ctx, acct.ID, RoleMerchant); !errors.Is(err, ErrSeedNotFound) {
		t.Fatalf("expected ErrSeedNotFound before provisioning, got %v", err)
	}

	res, err := svc.ProvisionWallet(ctx, acct.ID, RoleMerchant)
	if err != nil {
		t.Fatalf("provision wallet: %v", err)
	}

	revealed, err := svc.RevealSeed(ctx, acct.ID, RoleMerchant)
	if err != nil {
		t.Fatalf("reveal seed: %v", err)
	}
	if revealed != res.Mnemonic {
		t.Fatal("revealed mnemonic does not match provisioned mnemonic")
	}
}
