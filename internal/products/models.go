package products

import (
	"strings"
	"time"
)

// Product is a digital good offered in the catalog. The deliverable itself
// lives elsewhere; DigitalFileURL is an opaque pointer to it.
type Product struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	BannerURL      string    `json:"banner_url,omitempty"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	IsPublished    bool      `json:"is_published"`
	DigitalFileURL string    `json:"digital_file_url"`
	SearchText     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewProduct struct {
	Slug           string   `json:"slug" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	PriceCents     int64    `json:"price_cents" validate:"min=0"`
	Currency       string   `json:"currency" validate:"required,len=3"`
	ThumbnailURL   string   `json:"thumbnail_url" validate:"required"`
	BannerURL      string   `json:"banner_url"`
	Category       string   `json:"category" validate:"required"`
	Tags           []string `json:"tags"`
	DigitalFileURL string   `json:"digital_file_url" validate:"required"`
}

// UpdateProduct carries a partial patch; nil fields are left untouched.
type UpdateProduct struct {
	Slug           *string   `json:"slug"`
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	PriceCents     *int64    `json:"price_cents" validate:"omitempty,min=0"`
	Currency       *string   `json:"currency" validate:"omitempty,len=3"`
	ThumbnailURL   *string   `json:"thumbnail_url"`
	BannerURL      *string   `json:"banner_url"`
	Category       *string   `json:"category"`
	Tags           *[]string `json:"tags"`
	DigitalFileURL *string   `json:"digital_file_url"`
	IsPublished    *bool     `json:"is_published"`
}

// DeriveSearchText builds the denormalized text the search index runs over.
// Every write path (create, update, seed) must go through this, so a title
// edit recomputes against the surviving description and tags.
func DeriveSearchText(title, description string, tags []string) string {
	parts := make([]string, 0, 2+len(tags))
	parts = append(parts, title, description)
	parts = append(parts, tags...)
	return strings.Join(parts, " ")
}
