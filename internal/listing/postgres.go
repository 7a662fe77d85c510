package listing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores listings in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a listing record.
func (r *PostgresRepository) Create(ctx context.Context, listing Listing) error {
	_, err := r.db.Exec(ctx, `INSERT INTO listings (id, merchant_id, name, category, price, quantity, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		listing.ID, listing.MerchantID, listing.Name, listing.Category,
		listing.Price, listing.Quantity, listing.Active, listing.CreatedAt.UTC())
	return err
}

// Get fetches a listing by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT id, merchant_id, name, category, price, quantity, active, created_at
        FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// ListByMerchant returns the merchant's listings, newest first.
func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Listing, error) {
	rows, err := r.db.Query(ctx, `SELECT id, merchant_id, name, category, price, quantity, active, created_at
        FROM listings WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Reserve decrements quantity without ever going negative.
func (r *PostgresRepository) Reserve(ctx context.Context, id string, qty int) error {
	tag, err := r.db.Exec(ctx, `UPDATE listings SET quantity = quantity - $2
        WHERE id = $1 AND quantity >= $2`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// Restore adds reserved quantity back.
func (r *PostgresRepository) Restore(ctx context.Context, id string, qty int) error {
	tag, err := r.db.Exec(ctx, `UPDATE listings SET quantity = quantity + $2 WHERE id = $1`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	var createdAt time.Time
	if err := row.Scan(&l.ID, &l.MerchantID, &l.Name, &l.Category, &l.Price, &l.Quantity, &l.Active, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, err
	}
	l.CreatedAt = createdAt.UTC()
	return l, nil
}
