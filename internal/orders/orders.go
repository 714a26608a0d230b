// Package orders persists checkout results and is the only writer of
// download rows: one token per purchased line item, minted in the same
// transaction as the order itself.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/identity"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("order not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Create writes the order, its line-item snapshots, and one download row per
// line item, all atomically. Every download in the batch shares a single
// expiry of now + DownloadTTL. Returns the stored order.
func (c *Conf) Create(ctx context.Context, email string, items []LineItem,
	amountTotalCents int64, currency, paymentSessionID string, id identity.Identity) (Order, error) {

	if len(items) == 0 {
		return Order{}, fmt.Errorf("order must have at least one line item")
	}

	now := time.Now().UTC()
	order := Order{
		ID:               uuid.NewString(),
		UserID:           id.UserID(),
		Email:            email,
		Items:            items,
		AmountTotalCents: amountTotalCents,
		Currency:         currency,
		PaymentSessionID: paymentSessionID,
		PaymentStatus:    StatusPaid,
		CreatedAt:        now,
	}

	order.DownloadTokens = make([]string, len(items))
	for i := range items {
		order.DownloadTokens[i] = NewToken()
	}
	expiresAt := now.Add(DownloadTTL)

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		insertOrder := `
			INSERT INTO orders (id, user_id, email, amount_total_cents, currency,
				payment_session_id, payment_status, created_at)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, insertOrder, order.ID, order.UserID, order.Email,
			order.AmountTotalCents, order.Currency, order.PaymentSessionID,
			order.PaymentStatus, order.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		insertItem := `
			INSERT INTO order_items (order_id, product_id, title, price_cents, qty)
			VALUES ($1, $2, $3, $4, $5)
		`
		insertDownload := `
			INSERT INTO downloads (token, product_id, order_id, email, expires_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		for i, item := range items {
			if _, err := tx.ExecContext(ctx, insertItem, order.ID, item.ProductID,
				item.Title, item.PriceCents, item.Qty); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insertDownload, order.DownloadTokens[i],
				item.ProductID, order.ID, order.Email, expiresAt); err != nil {
				return fmt.Errorf("failed to insert download: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// ListByUser returns the user's orders, most recent first. Orders are keyed
// by user id only; anonymous sessions never own orders, so callers short
// circuit to an empty list before reaching here.
func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id, ''), email, amount_total_cents, currency,
		       payment_session_id, payment_status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range out {
		if err := c.loadDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetByPaymentSession reconciles a checkout redirect back to its order.
func (c *Conf) GetByPaymentSession(ctx context.Context, paymentSessionID string) (Order, error) {
	o, err := scanOrder(c.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(user_id, ''), email, amount_total_cents, currency,
		       payment_session_id, payment_status, created_at
		FROM orders
		WHERE payment_session_id = $1
	`, paymentSessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order by payment session: %w", err)
	}

	if err := c.loadDetails(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.AmountTotalCents, &o.Currency,
		&o.PaymentSessionID, &o.PaymentStatus, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (c *Conf) loadDetails(ctx context.Context, o *Order) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT product_id, title, price_cents, qty
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ProductID, &item.Title, &item.PriceCents, &item.Qty); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	tokenRows, err := c.db.QueryContext(ctx, `
		SELECT token FROM downloads WHERE order_id = $1 ORDER BY id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order downloads: %w", err)
	}
	defer tokenRows.Close()

	for tokenRows.Next() {
		var token string
		if err := tokenRows.Scan(&token); err != nil {
			return fmt.Errorf("failed to scan download token: %w", err)
		}
		o.DownloadTokens = append(o.DownloadTokens, token)
	}
	if err := tokenRows.Err(); err != nil {
		return fmt.Errorf("error iterating download tokens: %w", err)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
