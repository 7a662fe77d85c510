package chain

import (
	"context"
	"testing"
)

func TestKeypairFromMnemonicIsDeterministic(t *testing.T) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		t.Fatalf("new mnemonic: %v", err)
	}

	first, err := KeypairFromMnemonic(mnemonic)
	if err != nil {
		t.Fatalf("derive keypair: %v", err)
	}
	second, err := KeypairFromMnemonic(mnemonic)
	if err != nil {
		t.Fatalf("derive keypair: %v", err)
	}

	if !first.PublicKey().Equals(second.PublicKey()) {
		t.Fatal("same mnemonic produced different keypairs")
	}
}

func TestKeypairFromMnemonicRejectsGarbage(t *testing.T) {
	if _, err := KeypairFromMnemonic("definitely not twelve valid words"); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestRawAmount(t *testing.T) {
	cases := []struct {
		amount   float64
		decimals uint8
		want     uint64
	}{
		{50, 9, 50_000_000_000},
		{15.00, 6, 15_000_000},
		{0.1, 2, 10},
		{1.5, 0, 2}, // nearest-integer rounding
	}
	for _, tc := range cases {
		if got := RawAmount(tc.amount, tc.decimals); got != tc.want {
			t.Fatalf("RawAmount(%v, %d) = %d, want %d", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestSimulatorTransfer(t *testing.T) {
	sim := NewSimulator(6)

	mnemonic, _ := NewMnemonic()
	sender, _ := KeypairFromMnemonic(mnemonic)

	other, _ := NewMnemonic()
	recipientKey, _ := KeypairFromMnemonic(other)
	recipient := recipientKey.PublicKey()

	sim.SeedTokens(sender.PublicKey(), 1_000)

	ctx := context.Background()
	sig, err := sim.Transfer(ctx, sender, recipient, 400)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if sig.IsZero() {
		t.Fatal("expected non-zero signature")
	}

	fromBal, _ := sim.TokenBalance(ctx, sender.PublicKey())
	toBal, _ := sim.TokenBalance(ctx, recipient)
	if fromBal != 600 || toBal != 400 {
		t.Fatalf("unexpected balances after transfer: from=%d to=%d", fromBal, toBal)
	}

	if _, err := sim.Transfer(ctx, sender, recipient, 10_000); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	if got := len(sim.Transfers()); got != 1 {
		t.Fatalf("expected 1 recorded transfer, got %d", got)
	}
}
