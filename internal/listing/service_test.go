package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

func newAccounts(t *testing.T) (account.Repository, account.Account, account.Account) {
	t.Helper()
	ctx := context.Background()

	vault, err := seedvault.New("test-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	repo := account.NewMemoryRepository()
	svc := account.NewService(repo, vault)

	merchant, err := svc.Signup(ctx, account.SignupInput{
		Name: "Bea Merchant", Email: "bea@example.com", Password: "correct-horse", Role: account.RoleMerchant,
	})
	if err != nil {
		t.Fatalf("signup merchant: %v", err)
	}
	buyer, err := svc.Signup(ctx, account.SignupInput{
		Name: "Ada Buyer", Email: "ada@example.com", Password: "correct-horse", Role: account.RoleUser,
	})
	if err != nil {
		t.Fatalf("signup buyer: %v", err)
	}
	return repo, merchant, buyer
}

func TestCreateRequiresMerchant(t *testing.T) {
	accounts, merchant, buyer := newAccounts(t)
	svc := NewService(NewMemoryRepository(), accounts)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		MerchantID: merchant.ID, Name: "Coffee Beans", Category: "food", Price: 15, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || !created.Active {
		t.Fatalf("expected an active listing with an id: %+v", created)
	}

	if _, err := svc.Create(ctx, CreateInput{
		MerchantID: buyer.ID, Name: "Coffee Beans", Price: 15, Quantity: 5,
	}); err == nil {
		t.Fatal("expected non-merchant creation to be rejected")
	}
}

func TestCreateValidation(t *testing.T) {
	accounts, merchant, _ := newAccounts(t)
	svc := NewService(NewMemoryRepository(), accounts)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{MerchantID: merchant.ID, Price: 15, Quantity: 5}},
		{"zero price", CreateInput{MerchantID: merchant.ID, Name: "Coffee", Price: 0, Quantity: 5}},
		{"negative quantity", CreateInput{MerchantID: merchant.ID, Name: "Coffee", Price: 15, Quantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestReserveNeverGoesNegative(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	item := Listing{ID: "lst-1", MerchantID: "m-1", Name: "Coffee Beans", Price: 15, Quantity: 3, Active: true}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Reserve(ctx, "lst-1", 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := repo.Reserve(ctx, "lst-1", 2); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, _ := repo.Get(ctx, "lst-1")
	if got.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", got.Quantity)
	}

	if err := repo.Restore(ctx, "lst-1", 2); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ = repo.Get(ctx, "lst-1")
	if got.Quantity != 3 {
		t.Fatalf("expected quantity 3 after restore, got %d", got.Quantity)
	}
}
