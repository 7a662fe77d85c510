package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	confirmPollInterval = 2 * time.Second
	confirmTimeout      = 60 * time.Second
)

// RPCClient implements TokenClient against a Solana RPC endpoint for a single
// token mint.
type RPCClient struct {
	rpc  *rpc.Client
	mint solana.PublicKey
}

// NewRPCClient builds a token client for the given RPC URL and mint address.
func NewRPCClient(rpcURL, mint string) (*RPCClient, error) {
	if rpcURL == "" {
		return nil, errors.New("rpc url is required")
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("parse token mint: %w", err)
	}
	return &RPCClient{rpc: rpc.New(rpcURL), mint: mintKey}, nil
}

// LamportBalance returns the owner's native balance.
func (c *RPCClient) LamportBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return res.Value, nil
}

// TokenBalance returns the owner's token balance in raw units. Owners without
// an associated token account hold zero.
func (c *RPCClient) TokenBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, c.mint)
	if err != nil {
		return 0, fmt.Errorf("derive token account: %w", err)
	}

	res, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token balance: %w", err)
	}
	if res.Value == nil {
		return 0, nil
	}

	raw, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", res.Value.Amount, err)
	}
	return raw, nil
}

// MintDecimals reads the token's decimal precision from the mint. It is read
// per call because precision varies by deployment.
func (c *RPCClient) MintDecimals(ctx context.Context) (uint8, error) {
	res, err := c.rpc.GetTokenSupply(ctx, c.mint, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get token supply: %w", err)
	}
	if res.Value == nil {
		return 0, errors.New("empty token supply response")
	}
	return res.Value.Decimals, nil
}

// EnsureTokenAccount creates the owner's associated token account when it is
// missing, funded and signed by the payer.
func (c *RPCClient) EnsureTokenAccount(ctx context.Context, payer solana.PrivateKey, owner solana.PublicKey) error {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, c.mint)
	if err != nil {
		return fmt.Errorf("derive token account: %w", err)
	}

	if _, err := c.rpc.GetAccountInfo(ctx, ata); err == nil {
		return nil
	} else if !errors.Is(err, rpc.ErrNotFound) {
		return fmt.Errorf("check token account: %w", err)
	}

	instruction := c.createTokenAccountInstruction(payer.PublicKey(), ata, owner)
	_, err = c.submit(ctx, []solana.Instruction{instruction}, payer, nil)
	if err != nil {
		return fmt.Errorf("create token account: %w", err)
	}
	return nil
}

// Transfer submits a single token transfer from the sender to the recipient
// and waits for confirmation. If the recipient has no token account one is
// created in the same transaction with the sender as payer.
func (c *RPCClient) Transfer(ctx context.Context, sender solana.PrivateKey, recipient solana.PublicKey, rawAmount uint64) (solana.Signature, error) {
	senderATA, _, err := solana.FindAssociatedTokenAddress(sender.PublicKey(), c.mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive sender token account: %w", err)
	}
	recipientATA, _, err := solana.FindAssociatedTokenAddress(recipient, c.mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive recipient token account: %w", err)
	}

	var instructions []solana.Instruction
	if _, err := c.rpc.GetAccountInfo(ctx, recipientATA); err != nil {
		if !errors.Is(err, rpc.ErrNotFound) {
			return solana.Signature{}, fmt.Errorf("check recipient token account: %w", err)
		}
		instructions = append(instructions, c.createTokenAccountInstruction(sender.PublicKey(), recipientATA, recipient))
	}

	// SPL token Transfer: discriminator 3 followed by the amount as LE u64.
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], rawAmount)

	instructions = append(instructions, solana.NewInstruction(
		solana.TokenProgramID,
		solana.AccountMetaSlice{
			{PublicKey: senderATA, IsSigner: false, IsWritable: true},
			{PublicKey: recipientATA, IsSigner: false, IsWritable: true},
			{PublicKey: sender.PublicKey(), IsSigner: true, IsWritable: false},
		},
		data,
	))

	return c.submit(ctx, instructions, sender, nil)
}

// createTokenAccountInstruction builds an idempotent associated-token-account
// creation instruction so a concurrent creation does not fail the transaction.
func (c *RPCClient) createTokenAccountInstruction(payer, ata, owner solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: ata, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: false, IsWritable: false},
			{PublicKey: c.mint, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		[]byte{1}, // CreateIdempotent
	)
}

// submit signs, broadcasts, and confirms a transaction paid by the fee payer.
// extraSigners covers transactions that need more than the fee payer's key.
func (c *RPCClient) submit(ctx context.Context, instructions []solana.Instruction, feePayer solana.PrivateKey, extraSigners []solana.PrivateKey) (solana.Signature, error) {
	bh, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		bh.Value.Blockhash,
		solana.TransactionPayer(feePayer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	signers := append([]solana.PrivateKey{feePayer}, extraSigners...)
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(pk) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	enc, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := c.rpc.SendRawTransaction(ctx, enc)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("broadcast transaction: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// awaitConfirmation polls signature status until the transaction is confirmed
// or the bounded window elapses. A timeout here means unconfirmed, not failed:
// the transfer may still land on-chain.
func (c *RPCClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.Now().Add(confirmTimeout)
	for {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err == nil && statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s unconfirmed after %s", sig, confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s unconfirmed: %w", sig, ctx.Err())
		case <-time.After(confirmPollInterval):
		}
	}
}
