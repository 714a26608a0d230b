// Package cart holds one cart per identity and prices it against the
// catalog at read time; nothing about a product is denormalized into the
// cart rows.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/identity"
	"storefront/internal/products"

	"github.com/google/uuid"
)

type Conf struct {
	db      *sql.DB
	catalog Catalog
}

func NewConf(db *sql.DB, catalog Catalog) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	return &Conf{db: db, catalog: catalog}, nil
}

func ownerColumn(id identity.Identity) string {
	if id.Kind == identity.User {
		return "user_id"
	}
	return "session_id"
}

// Get loads the identity's cart and joins every line against the catalog.
// Anonymous identities and missing carts read as an empty view.
func (c *Conf) Get(ctx context.Context, id identity.Identity) (View, error) {
	if id.IsAnonymous() {
		return EmptyView(), nil
	}

	query := fmt.Sprintf(`
		SELECT ci.product_id, ci.qty
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.%s = $1
		ORDER BY ci.id
	`, ownerColumn(id))

	rows, err := c.db.QueryContext(ctx, query, id.ID)
	if err != nil {
		return View{}, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Qty); err != nil {
			return View{}, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return View{}, fmt.Errorf("error iterating cart items: %w", err)
	}

	return PriceItems(ctx, c.catalog, items)
}

// PriceItems resolves each line against the catalog. Deleted products show
// up as a nil product placeholder and price as zero; unpublished products
// still resolve, the cart is not a publication-gated read path.
func PriceItems(ctx context.Context, catalog Catalog, items []Item) (View, error) {
	priced := make([]PricedItem, 0, len(items))
	for _, item := range items {
		pi := PricedItem{ProductID: item.ProductID, Qty: item.Qty}
		p, err := catalog.GetByID(ctx, item.ProductID)
		switch {
		case err == nil:
			pi.Product = &p
		case errors.Is(err, products.ErrNotFound):
			// dangling reference, tolerated
		default:
			return View{}, fmt.Errorf("failed to resolve cart product: %w", err)
		}
		priced = append(priced, pi)
	}
	return View{Items: priced, Total: Total(priced)}, nil
}

// AddItem finds or creates the identity's cart and adds qty of the product.
// Adding a product already in the cart increments its quantity; the same
// product never occupies two lines.
func (c *Conf) AddItem(ctx context.Context, id identity.Identity, productID string, qty int) error {
	if id.IsAnonymous() {
		return nil
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.findOrCreateCart(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		upsertItem := `
			INSERT INTO cart_items (cart_id, product_id, qty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty, updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.ExecContext(ctx, upsertItem, cartID, productID, qty, now); err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}

		return c.touchCart(ctx, tx, cartID, now)
	})
}

// UpdateQty sets (not adds) the quantity of an existing line. The line stays
// in the cart even at qty <= 0; pruning is the caller's policy, not ours.
// No-op when the cart or the line does not exist.
func (c *Conf) UpdateQty(ctx context.Context, id identity.Identity, productID string, qty int) error {
	if id.IsAnonymous() {
		return nil
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.findCart(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
			UPDATE cart_items SET qty = $3, updated_at = $4
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID, qty, now)
		if err != nil {
			return fmt.Errorf("failed to update cart item qty: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		return c.touchCart(ctx, tx, cartID, now)
	})
}

// RemoveItem drops the line for productID; no-op when cart or line absent.
func (c *Conf) RemoveItem(ctx context.Context, id identity.Identity, productID string) error {
	if id.IsAnonymous() {
		return nil
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.findCart(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID)
		if err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		return c.touchCart(ctx, tx, cartID, time.Now().UTC())
	})
}

// Clear empties the identity's cart; the cart row itself survives.
func (c *Conf) Clear(ctx context.Context, id identity.Identity) error {
	if id.IsAnonymous() {
		return nil
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.findCart(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		return c.touchCart(ctx, tx, cartID, time.Now().UTC())
	})
}

func (c *Conf) findCart(ctx context.Context, tx *sql.Tx, id identity.Identity) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM carts WHERE %s = $1 FOR UPDATE`, ownerColumn(id))
	var cartID string
	if err := tx.QueryRowContext(ctx, query, id.ID).Scan(&cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("failed to query cart: %w", err)
	}
	return cartID, nil
}

// findOrCreateCart inserts a fresh cart when none exists. The partial unique
// indexes on user_id and session_id make concurrent first-adds for the same
// identity converge on one cart: the loser's insert conflicts away and the
// re-read picks up the winner's row.
func (c *Conf) findOrCreateCart(ctx context.Context, tx *sql.Tx, id identity.Identity) (string, error) {
	cartID, err := c.findCart(ctx, tx, id)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	now := time.Now().UTC()
	col := ownerColumn(id)
	insert := fmt.Sprintf(`
		INSERT INTO carts (id, %s, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (%s) WHERE %s IS NOT NULL DO NOTHING
		RETURNING id
	`, col, col, col)

	err = tx.QueryRowContext(ctx, insert, uuid.NewString(), id.ID, now).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to create cart: %w", err)
	}

	// Lost the race; the other transaction's cart is there now.
	return c.findCart(ctx, tx, id)
}

func (c *Conf) touchCart(ctx context.Context, tx *sql.Tx, cartID string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = $2 WHERE id = $1`, cartID, now); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
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
