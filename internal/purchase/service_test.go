package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/logging"
	"github.com/tokenmart/tokenmart/internal/notification"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notification.Message) error {
	n.messages = append(n.messages, message)
	return nil
}

type fixture struct {
	svc       *Service
	repo      Repository
	sim       *chain.Simulator
	notifier  *recordingNotifier
	buyer     account.Account
	buyerKey  solana.PrivateKey
	issuerKey solana.PrivateKey
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
	prov, err := accountSvc.ProvisionWallet(ctx, buyer.ID, account.RoleUser)
	if err != nil {
		t.Fatalf("provision buyer wallet: %v", err)
	}
	buyerKey, err := chain.KeypairFromMnemonic(prov.Mnemonic)
	if err != nil {
		t.Fatalf("derive buyer key: %v", err)
	}
	buyer, _ = accountsRepo.Get(ctx, buyer.ID)

	issuerKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("issuer key: %v", err)
	}

	sim := chain.NewSimulator(IssuanceDecimals)
	sim.SeedTokens(issuerKey.PublicKey(), chain.RawAmount(1_000_000, IssuanceDecimals))

	notifier := &recordingNotifier{}
	repo := NewMemoryRepository()
	svc := NewService(repo, accountsRepo, sim, StaticAcquirer{}, notifier, issuerKey, logging.Discard())

	return &fixture{
		svc:       svc,
		repo:      repo,
		sim:       sim,
		notifier:  notifier,
		buyer:     buyer,
		buyerKey:  buyerKey,
		issuerKey: issuerKey,
	}
}

func TestCardPurchaseIssuesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Create(ctx, CreateInput{
		RequestID:     "pr-1",
		BuyerID:       f.buyer.ID,
		Amount:        50,
		Currency:      "USD",
		PaymentMethod: MethodCard,
		Card:          Card{Number: "4242424242424242", Expiry: "12/27", CVV: "123"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if request.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s", request.Status)
	}
	if request.TxSignature == "" || request.ProcessedAt == nil {
		t.Fatalf("expected signature and processed timestamp: %+v", request)
	}

	transfers := f.sim.Transfers()
	if len(transfers) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(transfers))
	}
	// 50 tokens at 9 decimals.
	if want := uint64(50_000_000_000); transfers[0].RawAmount != want {
		t.Fatalf("expected raw amount %d, got %d", want, transfers[0].RawAmount)
	}
	if transfers[0].From != f.issuerKey.PublicKey() || transfers[0].To != f.buyerKey.PublicKey() {
		t.Fatal("issuance must move issuer tokens into the buyer wallet")
	}

	if len(f.notifier.messages) != 1 || f.notifier.messages[0].To != "ada@example.com" {
		t.Fatalf("expected one receipt to the buyer, got %+v", f.notifier.messages)
	}
}

func TestBankTransferStaysPendingUntilApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Create(ctx, CreateInput{
		RequestID:     "pr-1",
		BuyerID:       f.buyer.ID,
		Amount:        50,
		Currency:      "USD",
		PaymentMethod: MethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if request.Status != StatusPending {
		t.Fatalf("expected status pending, got %s", request.Status)
	}
	if got := len(f.sim.Transfers()); got != 0 {
		t.Fatalf("expected no transfer before approval, got %d", got)
	}

	sig, err := f.svc.Approve(ctx, "pr-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	request, _ = f.repo.Get(ctx, "pr-1")
	if request.Status != StatusCompleted || request.TxSignature != sig {
		t.Fatalf("expected completed with signature %s, got %+v", sig, request)
	}

	if _, err := f.svc.Approve(ctx, "pr-1"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if got := len(f.sim.Transfers()); got != 1 {
		t.Fatalf("expected exactly one transfer, got %d", got)
	}
}

func TestIssuanceFailureIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, CreateInput{
		RequestID:     "pr-1",
		BuyerID:       f.buyer.ID,
		Amount:        50,
		Currency:      "USD",
		PaymentMethod: MethodBankTransfer,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.sim.FailTransfers(errors.New("blockhash expired"))
	if _, err := f.svc.Approve(ctx, "pr-1"); err == nil {
		t.Fatal("expected issuance to fail")
	}

	request, _ := f.repo.Get(ctx, "pr-1")
	if request.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", request.Status)
	}
	if request.ErrorMessage == "" {
		t.Fatal("expected error message on failed request")
	}

	// A failed purchase never issues, even after the chain recovers.
	f.sim.FailTransfers(nil)
	if _, err := f.svc.Approve(ctx, "pr-1"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, CreateInput{
		RequestID: "pr-1", BuyerID: f.buyer.ID, Amount: 50, PaymentMethod: "crypto",
	}); err == nil {
		t.Fatal("expected unknown payment method to be rejected")
	}

	if _, err := f.svc.Create(ctx, CreateInput{
		RequestID: "pr-2", BuyerID: f.buyer.ID, Amount: 50,
		PaymentMethod: MethodCard, Card: Card{Number: "not-a-card"},
	}); err == nil {
		t.Fatal("expected invalid card number to be rejected")
	}
	if got := len(f.sim.Transfers()); got != 0 {
		t.Fatalf("expected no transfers, got %d", got)
	}
}

func TestCreateRequiresWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vault, _ := seedvault.New("test-secret")
	accountsRepo := account.NewMemoryRepository()
	accountSvc := account.NewService(accountsRepo, vault)
	walletless, err := accountSvc.Signup(ctx, account.SignupInput{
		Name: "No Wallet", Email: "none@example.com", Password: "correct-horse", Role: account.RoleUser,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	svc := NewService(f.repo, accountsRepo, f.sim, StaticAcquirer{}, f.notifier, f.issuerKey, logging.Discard())
	if _, err := svc.Create(ctx, CreateInput{
		RequestID: "pr-1", BuyerID: walletless.ID, Amount: 50, PaymentMethod: MethodBankTransfer,
	}); !errors.Is(err, ErrNoWallet) {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
}
