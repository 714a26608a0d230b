// Package downloads resolves download tokens to deliverables. It only ever
// reads rows written by the order service, plus the one used_at stamp.
package downloads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/products"
)

var (
	ErrNotFound = errors.New("download token not found")
	ErrExpired  = errors.New("download token has expired")
)

// Catalog is the slice of the product store token resolution needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (products.Product, error)
}

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

// Result pairs a valid download with the product it unlocks.
type Result struct {
	Product  products.Product `json:"product"`
	Download Download         `json:"download"`
}

// Resolve checks a token: unknown tokens and tokens whose product has since
// been deleted report ErrNotFound, past-deadline tokens report ErrExpired.
// A previously recorded used_at does not block resolution.
func (c *Conf) Resolve(ctx context.Context, token string) (Result, error) {
	d, err := c.getByToken(ctx, token)
	if err != nil {
		return Result{}, err
	}

	if d.Expired(time.Now().UTC()) {
		return Result{}, ErrExpired
	}

	p, err := c.catalog.GetByID(ctx, d.ProductID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("failed to resolve download product: %w", err)
	}

	return Result{Product: p, Download: d}, nil
}

// MarkUsed stamps used_at = now. Purely a record of redemption: future
// Resolve calls for the same token still succeed until expiry.
func (c *Conf) MarkUsed(ctx context.Context, token string) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE downloads SET used_at = $2 WHERE token = $1
	`, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark download used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) getByToken(ctx context.Context, token string) (Download, error) {
	var d Download
	err := c.db.QueryRowContext(ctx, `
		SELECT token, product_id, order_id, email, expires_at, used_at
		FROM downloads
		WHERE token = $1
	`, token).Scan(&d.Token, &d.ProductID, &d.OrderID, &d.Email, &d.ExpiresAt, &d.UsedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Download{}, ErrNotFound
		}
		return Download{}, fmt.Errorf("failed to query download by token: %w", err)
	}
	return d, nil
}
