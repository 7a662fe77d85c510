package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores orders in PostgreSQL. Settlement mutations run in
// a single transaction spanning the order row, account balances, and listing
// inventory, with the order row locked first.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, buyer_id, buyer_name, merchant_id, merchant_name, listing_id, listing_name,
        price, quantity, status, redeem_code, tx_signature, error_message, redeemed_at, created_at`

// Create inserts an order record.
func (r *PostgresRepository) Create(ctx context.Context, order Order) error {
	_, err := r.db.Exec(ctx, `INSERT INTO orders (id, buyer_id, buyer_name, merchant_id, merchant_name, listing_id, listing_name,
        price, quantity, status, redeem_code, tx_signature, error_message, redeemed_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		order.ID, order.BuyerID, order.BuyerName, order.MerchantID, order.MerchantName,
		order.ListingID, order.ListingName, order.Price, order.Quantity, order.Status,
		order.RedeemCode, order.TxSignature, order.ErrorMessage, order.RedeemedAt, order.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateOrder
	}
	return err
}

// Get fetches an order by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE id = $1`, id))
}

// ListByBuyer returns the buyer's cart projection, newest first.
func (r *PostgresRepository) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
}

// ListByMerchant returns the merchant's order projection, newest first.
func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM orders WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
}

// SetStatus transitions the order between statuses with a guarded update.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, from []string, to string) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $3 WHERE id = $1 AND status = ANY($2)`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// Complete marks the order completed and moves the display balances in one
// transaction. A concurrent settlement sees the row already terminal and
// fails with ErrAlreadySettled without touching balances.
func (r *PostgresRepository) Complete(ctx context.Context, id, txSignature string, redeemedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	order, err := lockOrder(ctx, tx, id)
	if err != nil {
		return err
	}
	if order.Terminal() {
		return ErrAlreadySettled
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, tx_signature = $3, redeemed_at = $4, error_message = ''
        WHERE id = $1`, id, StatusCompleted, txSignature, redeemedAt.UTC()); err != nil {
		return err
	}

	total := order.Total()
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $2 WHERE id = $1`, order.BuyerID, total); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, order.MerchantID, total); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Fail moves a pre-completion order to a terminal failure status and restores
// the reserved inventory in the same transaction.
func (r *PostgresRepository) Fail(ctx context.Context, id, status, errMsg string) error {
	if status != StatusFailed && status != StatusRejected && status != StatusCancelled {
		return ErrInvalidTransition
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	order, err := lockOrder(ctx, tx, id)
	if err != nil {
		return err
	}
	if order.Terminal() {
		return ErrAlreadySettled
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, error_message = $3 WHERE id = $1`, id, status, errMsg); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE listings SET quantity = quantity + $2 WHERE id = $1`, order.ListingID, order.Quantity); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) list(ctx context.Context, query, arg string) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func lockOrder(ctx context.Context, tx pgx.Tx, id string) (Order, error) {
	return scanOrder(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var redeemedAt *time.Time
	var createdAt time.Time
	if err := row.Scan(&o.ID, &o.BuyerID, &o.BuyerName, &o.MerchantID, &o.MerchantName,
		&o.ListingID, &o.ListingName, &o.Price, &o.Quantity, &o.Status,
		&o.RedeemCode, &o.TxSignature, &o.ErrorMessage, &redeemedAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if redeemedAt != nil {
		t := redeemedAt.UTC()
		o.RedeemedAt = &t
	}
	o.CreatedAt = createdAt.UTC()
	return o, nil
}
