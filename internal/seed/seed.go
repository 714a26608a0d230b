// Package seed resets the catalog and cart collections to a fixed demo
// dataset. Development convenience only: the delete-then-insert sequence is
// not one transaction, so concurrent runs can interleave.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/products"
)

func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}
	// cart_items cascade with their carts
	if _, err := db.ExecContext(ctx, `DELETE FROM carts`); err != nil {
		return fmt.Errorf("clearing carts: %w", err)
	}

	pConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	for _, np := range Demo() {
		if _, err := pConf.Insert(ctx, np); err != nil {
			return fmt.Errorf("seeding product %s: %w", np.Slug, err)
		}
	}
	return nil
}

// Demo is the fixed storefront dataset used by the seeding task.
func Demo() []products.NewProduct {
	return []products.NewProduct{
		{
			Slug:           "art-of-digital-marketing",
			Title:          "The Art of Digital Marketing",
			Description:    "Master the fundamentals of digital marketing with this comprehensive guide. Learn SEO, social media marketing, content strategy, and conversion optimization techniques that drive real results.",
			PriceCents:     2900,
			Currency:       "usd",
			ThumbnailURL:   "https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=400&h=300&fit=crop",
			BannerURL:      "https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=800&h=400&fit=crop",
			Category:       "Marketing",
			Tags:           []string{"digital marketing", "seo", "social media", "content strategy"},
			DigitalFileURL: "https://example.com/files/digital-marketing.pdf",
		},
		{
			Slug:           "web-development-fundamentals",
			Title:          "Web Development Fundamentals",
			Description:    "Build modern web applications from scratch. This course covers HTML, CSS, JavaScript, React, and backend development with Node.js. Perfect for beginners and intermediate developers.",
			PriceCents:     3900,
			Currency:       "usd",
			ThumbnailURL:   "https://images.unsplash.com/photo-1498050108023-c5249f4df085?w=400&h=300&fit=crop",
			BannerURL:      "https://images.unsplash.com/photo-1498050108023-c5249f4df085?w=800&h=400&fit=crop",
			Category:       "Development",
			Tags:           []string{"web development", "javascript", "react", "nodejs", "html", "css"},
			DigitalFileURL: "https://example.com/files/web-development.pdf",
		},
		{
			Slug:           "data-science-essentials",
			Title:          "Data Science Essentials",
			Description:    "Dive into the world of data science with Python, pandas, NumPy, and machine learning. Learn to analyze data, create visualizations, and build predictive models.",
			PriceCents:     4900,
			Currency:       "usd",
			ThumbnailURL:   "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=400&h=300&fit=crop",
			BannerURL:      "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=800&h=400&fit=crop",
			Category:       "Data Science",
			Tags:           []string{"data science", "python", "machine learning", "pandas", "numpy"},
			DigitalFileURL: "https://example.com/files/data-science.pdf",
		},
	}
}
