package order

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/listing"
	"github.com/tokenmart/tokenmart/internal/logging"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

const testDecimals = 6

type fixture struct {
	svc      *Service
	repo     Repository
	accounts account.Repository
	listings listing.Repository
	sim      *chain.Simulator
	buyer    account.Account
	merchant account.Account
	buyerKey solana.PrivateKey
	item     listing.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	vault, err := seedvault.New("test-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	accountsRepo := account.NewMemoryRepository()
	accountSvc := account.NewService(accountsRepo, vault)

	buyer, err := accountSvc.Signup(ctx, account.SignupInput{
		Name: "Ada Buyer", Email: "ada@example.com", Password: "correct-horse", Role: account.RoleUser,
	})
	if err != nil {
		t.Fatalf("signup buyer: %v", err)
	}
	buyerWallet, err := accountSvc.ProvisionWallet(ctx, buyer.ID, account.RoleUser)
	if err != nil {
		t.Fatalf("provision buyer wallet: %v", err)
	}
	buyerKey, err := chain.KeypairFromMnemonic(buyerWallet.Mnemonic)
	if err != nil {
		t.Fatalf("derive buyer key: %v", err)
	}

	merchant, err := accountSvc.Signup(ctx, account.SignupInput{
		Name: "Bea Merchant", Email: "bea@example.com", Password: "correct-horse", Role: account.RoleMerchant,
	})
	if err != nil {
		t.Fatalf("signup merchant: %v", err)
	}
	if _, err := accountSvc.ProvisionWallet(ctx, merchant.ID, account.RoleMerchant); err != nil {
		t.Fatalf("provision merchant wallet: %v", err)
	}

	buyer, _ = accountsRepo.Get(ctx, buyer.ID)
	merchant, _ = accountsRepo.Get(ctx, merchant.ID)

	listingsRepo := listing.NewMemoryRepository()
	item := listing.Listing{
		ID:         "lst-1",
		MerchantID: merchant.ID,
		Name:       "Coffee Beans",
		Category:   "food",
		Price:      15,
		Quantity:   5,
		Active:     true,
	}
	if err := listingsRepo.Create(ctx, item); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	sim := chain.NewSimulator(testDecimals)
	sim.SeedLamports(buyerKey.PublicKey(), 100_000)

	repo := NewMemoryRepository(accountsRepo, listingsRepo)
	svc := NewService(repo, accountsRepo, listingsRepo, vault, sim, logging.Discard())

	return &fixture{
		svc:      svc,
		repo:     repo,
		accounts: accountsRepo,
		listings: listingsRepo,
		sim:      sim,
		buyer:    buyer,
		merchant: merchant,
		buyerKey: buyerKey,
		item:     item,
	}
}

func (f *fixture) addAndApprove(t *testing.T, orderID string, qty int) Order {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.AddToCart(ctx, AddInput{
		OrderID: orderID, BuyerID: f.buyer.ID, ListingID: f.item.ID, Quantity: qty,
	}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	order, err := f.svc.Approve(ctx, f.merchant.ID, orderID, true)
	if err != nil {
		t.Fatalf("approve order: %v", err)
	}
	return order
}

func TestAddToCartReservesInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddToCart(ctx, AddInput{
		OrderID: "ord-1", BuyerID: f.buyer.ID, ListingID: f.item.ID, Quantity: 2,
	}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	item, _ := f.listings.Get(ctx, f.item.ID)
	if item.Quantity != 3 {
		t.Fatalf("expected quantity 3 after reservation, got %d", item.Quantity)
	}

	if _, err := f.svc.AddToCart(ctx, AddInput{
		OrderID: "ord-2", BuyerID: f.buyer.ID, ListingID: f.item.ID, Quantity: 10,
	}); !errors.Is(err, listing.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if _, err := f.svc.AddToCart(ctx, AddInput{
		OrderID: "ord-1", BuyerID: f.buyer.ID, ListingID: f.item.ID, Quantity: 1,
	}); !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}

	// The duplicate attempt must not leak its reservation.
	item, _ = f.listings.Get(ctx, f.item.ID)
	if item.Quantity != 3 {
		t.Fatalf("expected quantity 3 after duplicate rejection, got %d", item.Quantity)
	}
}

func TestRedeemSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAndApprove(t, "ord-1", 1)
	f.sim.SeedTokens(f.buyerKey.PublicKey(), chain.RawAmount(20, testDecimals))

	sig, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if sig == "" {
		t.Fatal("expected a transaction signature")
	}

	order, _ := f.repo.Get(ctx, "ord-1")
	if order.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s", order.Status)
	}
	if order.TxSignature != sig || order.RedeemedAt == nil {
		t.Fatalf("expected signature and redeemed timestamp on order: %+v", order)
	}

	transfers := f.sim.Transfers()
	if len(transfers) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(transfers))
	}
	if want := chain.RawAmount(15, testDecimals); transfers[0].RawAmount != want {
		t.Fatalf("expected raw amount %d, got %d", want, transfers[0].RawAmount)
	}
	if transfers[0].To.String() != f.merchant.WalletAddress {
		t.Fatal("transfer recipient is not the merchant wallet")
	}

	buyer, _ := f.accounts.Get(ctx, f.buyer.ID)
	merchant, _ := f.accounts.Get(ctx, f.merchant.ID)
	if buyer.Balance != -15 || merchant.Balance != 15 {
		t.Fatalf("unexpected display balances: buyer=%v merchant=%v", buyer.Balance, merchant.Balance)
	}

	// The order appears exactly once in the buyer's cart, as completed.
	cart, _ := f.svc.Cart(ctx, f.buyer.ID)
	count := 0
	for _, o := range cart {
		if o.ID == "ord-1" {
			count++
			if o.Status != StatusCompleted {
				t.Fatalf("cart copy has status %s", o.Status)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected order once in cart, found %d", count)
	}

	pending, recent, _ := f.svc.MerchantOrders(ctx, f.merchant.ID)
	if len(pending) != 0 || len(recent) != 1 {
		t.Fatalf("expected 0 pending / 1 recent, got %d / %d", len(pending), len(recent))
	}
}

func TestRedeemInsufficientTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAndApprove(t, "ord-1", 1)
	// Buyer holds 10.00 tokens against a 15.00 order.
	f.sim.SeedTokens(f.buyerKey.PublicKey(), chain.RawAmount(10, testDecimals))

	_, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID})
	if !errors.Is(err, chain.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	if got := len(f.sim.Transfers()); got != 0 {
		t.Fatalf("expected no transfer submission, got %d", got)
	}

	// Pure validation failure: the order keeps its pre-settlement status.
	order, _ := f.repo.Get(ctx, "ord-1")
	if order.Status != StatusReadyToRedeem {
		t.Fatalf("expected status ready_to_redeem, got %s", order.Status)
	}
	if order.TxSignature != "" {
		t.Fatal("no transaction signature must be produced")
	}
}

func TestRedeemInsufficientFeeBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAndApprove(t, "ord-1", 1)
	f.sim.SeedLamports(f.buyerKey.PublicKey(), chain.MinFeeLamports-1)
	f.sim.SeedTokens(f.buyerKey.PublicKey(), chain.RawAmount(20, testDecimals))

	if _, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID}); !errors.Is(err, chain.ErrInsufficientFeeBalance) {
		t.Fatalf("expected ErrInsufficientFeeBalance, got %v", err)
	}
	if got := len(f.sim.Transfers()); got != 0 {
		t.Fatalf("expected no transfer submission, got %d", got)
	}
}

func TestRedeemChainFailureCompensates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAndApprove(t, "ord-1", 2)
	f.sim.SeedTokens(f.buyerKey.PublicKey(), chain.RawAmount(100, testDecimals))
	f.sim.FailTransfers(errors.New("blockhash expired"))

	_, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID})
	if err == nil {
		t.Fatal("expected redemption to fail")
	}

	order, _ := f.repo.Get(ctx, "ord-1")
	if order.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", order.Status)
	}
	if order.ErrorMessage == "" {
		t.Fatal("expected error message on failed order")
	}

	// Inventory round-trips through reserve -> fail -> restore.
	item, _ := f.listings.Get(ctx, f.item.ID)
	if item.Quantity != 5 {
		t.Fatalf("expected quantity restored to 5, got %d", item.Quantity)
	}

	buyer, _ := f.accounts.Get(ctx, f.buyer.ID)
	if buyer.Balance != 0 {
		t.Fatalf("display balance must be untouched on failure, got %v", buyer.Balance)
	}
}

func TestRedeemTwiceFailsCleanly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAndApprove(t, "ord-1", 1)
	f.sim.SeedTokens(f.buyerKey.PublicKey(), chain.RawAmount(100, testDecimals))

	if _, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID}); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := f.svc.Redeem(ctx, RedeemInput{OrderID: "ord-1", BuyerID: f.buyer.ID}); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if got := len(f.sim.Transfers()); got != 1 {
		t.Fatalf("expected exactly one transfer, got %d", got)
	}
}

func TestRedeemRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	f.addAndApprove(t, "ord-1", 1)

	if _, err := f.svc.Redeem(context.Background(), RedeemInput{OrderID: "ord-1", BuyerID: "someone-else"}); !errors.Is(err, ErrNotBuyer) {
		t.Fatalf("expected ErrNotBuyer, got %v", err)
	}
}

func TestRejectRestoresInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddToCart(ctx, AddInput{
		OrderID: "ord-1", BuyerID: f.buyer.ID, ListingID: f.item.ID, Quantity: 3,
	}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	order, err := f.svc.Approve(ctx, f.merchant.ID, "ord-1", false)
	if err != nil {
		t.Fatalf("reject order: %v", err)
	}
	if order.Status != StatusRejected {
		t.Fatalf("expected status rejected, got %s", order.Status)
	}

	item, _ := f.listings.Get(ctx, f.item.ID)
	if item.Quantity != 5 {
		t.Fatalf("expected quantity restored to 5, got %d", item.Quantity)
	}
}
