package cashout

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores cash-out requests in PostgreSQL. The status
// transitions use guarded updates so two concurrent settlements cannot both
// win.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, merchant_id, amount, status, tx_signature, error_message, processed_at, created_at`

// Create inserts a cash-out request.
func (r *PostgresRepository) Create(ctx context.Context, request Request) error {
	_, err := r.db.Exec(ctx, `INSERT INTO cashout_requests (id, merchant_id, amount, status, tx_signature, error_message, processed_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		request.ID, request.MerchantID, request.Amount, request.Status,
		request.TxSignature, request.ErrorMessage, request.ProcessedAt, request.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRequest
	}
	return err
}

// Get fetches a cash-out request by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM cashout_requests WHERE id = $1`, id))
}

// ListByMerchant returns the merchant's cash-out history, newest first.
func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Request, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM cashout_requests WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
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

// Approve marks a pending request approved with its settlement signature.
func (r *PostgresRepository) Approve(ctx context.Context, id, txSignature string, processedAt time.Time) error {
	return r.transition(ctx, id,
		`UPDATE cashout_requests SET status = $2, tx_signature = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		StatusApproved, txSignature, processedAt.UTC(), StatusPending)
}

// Deny marks a pending request denied with the failure reason.
func (r *PostgresRepository) Deny(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	return r.transition(ctx, id,
		`UPDATE cashout_requests SET status = $2, error_message = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		StatusDenied, errMsg, processedAt.UTC(), StatusPending)
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
	if err := row.Scan(&req.ID, &req.MerchantID, &req.Amount, &req.Status,
		&req.TxSignature, &req.ErrorMessage, &processedAt, &createdAt); err != nil {
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
