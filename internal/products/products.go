// Package products is the catalog store: slug lookups, published-only
// listing, keyword search over the derived search text, and the
// catalog-management mutations.
package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports that no visible product matched the lookup. The slug
// path also returns it for rows that exist but are unpublished.
var ErrNotFound = errors.New("product not found")

const defaultListLimit = 12

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const productColumns = `id, slug, title, description, price_cents, currency,
thumbnail_url, COALESCE(banner_url, ''), category, tags, is_published,
digital_file_url, search_text, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var tags []byte
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.PriceCents, &p.Currency,
		&p.ThumbnailURL, &p.BannerURL, &p.Category, &tags, &p.IsPublished,
		&p.DigitalFileURL, &p.SearchText, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return Product{}, fmt.Errorf("decoding product tags: %w", err)
	}
	return p, nil
}

// List returns published products. With a search keyword it runs a
// relevance-ranked full-text query over search_text; without one it returns
// the most recently updated products first. Category narrows either mode.
func (c *Conf) List(ctx context.Context, category, search string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows *sql.Rows
	var err error
	if search != "" {
		query := `
			SELECT ` + productColumns + `
			FROM products
			WHERE is_published = TRUE
			  AND ($1 = '' OR category = $1)
			  AND to_tsvector('english', search_text) @@ plainto_tsquery('english', $2)
			ORDER BY ts_rank(to_tsvector('english', search_text), plainto_tsquery('english', $2)) DESC,
			         updated_at DESC
			LIMIT $3
		`
		rows, err = c.db.QueryContext(ctx, query, category, search, limit)
	} else {
		query := `
			SELECT ` + productColumns + `
			FROM products
			WHERE is_published = TRUE
			  AND ($1 = '' OR category = $1)
			ORDER BY updated_at DESC
			LIMIT $2
		`
		rows, err = c.db.QueryContext(ctx, query, category, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// GetBySlug reports ErrNotFound for unpublished products even on an exact
// slug match; draft products are invisible on this read path.
func (c *Conf) GetBySlug(ctx context.Context, slug string) (Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE slug = $1 AND is_published = TRUE
	`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product by slug: %w", err)
	}
	return p, nil
}

// GetByID fetches a product regardless of publication state. The cart join
// and download resolution need to see unpublished products.
func (c *Conf) GetByID(ctx context.Context, id string) (Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product by id: %w", err)
	}
	return p, nil
}

// GetFeatured returns the three most recently updated published products.
// Recency stands in for real curation for now.
func (c *Conf) GetFeatured(ctx context.Context) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_published = TRUE
		ORDER BY updated_at DESC
		LIMIT 3
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query featured products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (c *Conf) Insert(ctx context.Context, np NewProduct) (Product, error) {
	now := time.Now().UTC()
	p := Product{
		ID:             uuid.NewString(),
		Slug:           np.Slug,
		Title:          np.Title,
		Description:    np.Description,
		PriceCents:     np.PriceCents,
		Currency:       np.Currency,
		ThumbnailURL:   np.ThumbnailURL,
		BannerURL:      np.BannerURL,
		Category:       np.Category,
		Tags:           np.Tags,
		IsPublished:    true,
		DigitalFileURL: np.DigitalFileURL,
		SearchText:     DeriveSearchText(np.Title, np.Description, np.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return Product{}, fmt.Errorf("encoding product tags: %w", err)
	}

	query := `
		INSERT INTO products (id, slug, title, description, price_cents, currency,
			thumbnail_url, banner_url, category, tags, is_published,
			digital_file_url, search_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = c.db.ExecContext(ctx, query, p.ID, p.Slug, p.Title, p.Description,
		p.PriceCents, p.Currency, p.ThumbnailURL, p.BannerURL, p.Category, tags,
		p.IsPublished, p.DigitalFileURL, p.SearchText, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

// Update merges the supplied fields over the stored product and recomputes
// search_text from the resulting title, description and tags.
func (c *Conf) Update(ctx context.Context, id string, up UpdateProduct) (Product, error) {
	var updated Product
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT ` + productColumns + `
			FROM products
			WHERE id = $1
			FOR UPDATE
		`
		p, err := scanProduct(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to query product for update: %w", err)
		}

		if up.Slug != nil {
			p.Slug = *up.Slug
		}
		if up.Title != nil {
			p.Title = *up.Title
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.PriceCents != nil {
			p.PriceCents = *up.PriceCents
		}
		if up.Currency != nil {
			p.Currency = *up.Currency
		}
		if up.ThumbnailURL != nil {
			p.ThumbnailURL = *up.ThumbnailURL
		}
		if up.BannerURL != nil {
			p.BannerURL = *up.BannerURL
		}
		if up.Category != nil {
			p.Category = *up.Category
		}
		if up.Tags != nil {
			p.Tags = *up.Tags
		}
		if up.DigitalFileURL != nil {
			p.DigitalFileURL = *up.DigitalFileURL
		}
		if up.IsPublished != nil {
			p.IsPublished = *up.IsPublished
		}
		p.SearchText = DeriveSearchText(p.Title, p.Description, p.Tags)
		p.UpdatedAt = time.Now().UTC()

		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encoding product tags: %w", err)
		}

		updateQuery := `
			UPDATE products
			SET slug = $2, title = $3, description = $4, price_cents = $5,
			    currency = $6, thumbnail_url = $7, banner_url = NULLIF($8, ''),
			    category = $9, tags = $10, is_published = $11,
			    digital_file_url = $12, search_text = $13, updated_at = $14
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, updateQuery, p.ID, p.Slug, p.Title, p.Description,
			p.PriceCents, p.Currency, p.ThumbnailURL, p.BannerURL, p.Category, tags,
			p.IsPublished, p.DigitalFileURL, p.SearchText, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// Delete is a hard delete with no cascade. Carts, orders and downloads that
// still point at the product keep their references; each read path decides
// how to tolerate the dangle.
func (c *Conf) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// Categories returns the distinct categories among published products.
func (c *Conf) Categories(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE is_published = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func collectProducts(rows *sql.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return out, nil
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
