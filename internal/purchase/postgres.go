package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores purchase requests in PostgreSQL with guarded
// status transitions.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, buyer_id, buyer_name, wallet_address, amount, currency, payment_method,
        status, tx_signature, error_message, processed_at, created_at`

// Create inserts a purchase request.
func (r *PostgresRepository) Create(ctx context.Context, request Request) error {
	_, err := r.db.Exec(ctx, `INSERT INTO purchase_requests (id, buyer_id, buyer_name, wallet_address, amount, currency,
        payment_method, status, tx_signature, error_message, processed_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		request.ID, request.BuyerID, request.BuyerName, request.WalletAddress, request.Amount,
		request.Currency, request.PaymentMethod, request.Status, request.TxSignature,
		request.ErrorMessage, request.ProcessedAt, request.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRequest
	}
	return err
}

// Get fetches a purchase request by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM purchase_requests WHERE id = $1`, id))
}

// ListByBuyer returns the buyer's purchase history, newest first.
func (r *PostgresRepository) ListByBuyer(ctx context.Context, buyerID string) ([]Request, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM purchase_requests WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Complete marks a pending request completed with its issuance signature.
func (r *PostgresRepository) Complete(ctx context.Context, id, txSignature string, processedAt time.Time) error {
	return r.transition(ctx, id,
		`UPDATE purchase_requests SET status = $2, tx_signature = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		StatusCompleted, txSignature, processedAt.UTC(), StatusPending)
}

// Fail marks a pending request failed with the failure reason.
func (r *PostgresRepository) Fail(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	return r.transition(ctx, id,
		`UPDATE purchase_requests SET status = $2, error_message = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		StatusFailed, errMsg, processedAt.UTC(), StatusPending)
}

func (r *PostgresRepository) transition(ctx context.Context, id, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyProcessed
	}
	return nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var processedAt *time.Time
	var createdAt time.Time
	if err := row.Scan(&req.ID, &req.BuyerID, &req.BuyerName, &req.WalletAddress, &req.Amount,
		&req.Currency, &req.PaymentMethod, &req.Status, &req.TxSignature,
		&req.ErrorMessage, &processedAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	if processedAt != nil {
		t := processedAt.UTC()
		req.ProcessedAt = &t
	}
	req.CreatedAt = createdAt.UTC()
	return req, nil
}
