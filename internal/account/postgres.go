package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, role, name, email, password_hash, wallet_address, encrypted_mnemonic, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.Role, account.Name, account.Email, account.PasswordHash,
		account.WalletAddress, account.EncryptedMnemonic, account.Balance, account.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

// Get fetches an account by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, role, name, email, password_hash, wallet_address, encrypted_mnemonic, balance, created_at
        FROM accounts WHERE id = $1`, id))
}

// GetByEmail fetches an account by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, role, name, email, password_hash, wallet_address, encrypted_mnemonic, balance, created_at
        FROM accounts WHERE email = $1`, email))
}

// SetWallet writes wallet fields once; an already-provisioned account is left
// untouched and the call fails with ErrWalletExists.
func (r *PostgresRepository) SetWallet(ctx context.Context, id, walletAddress, encryptedMnemonic string) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET wallet_address = $2, encrypted_mnemonic = $3
        WHERE id = $1 AND wallet_address = ''`, id, walletAddress, encryptedMnemonic)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrWalletExists
	}
	return nil
}

// AdjustBalance moves the display balance by delta.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, id string, delta float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Account, error) {
	var a Account
	var createdAt time.Time
	if err := row.Scan(&a.ID, &a.Role, &a.Name, &a.Email, &a.PasswordHash,
		&a.WalletAddress, &a.EncryptedMnemonic, &a.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
