package cart

import (
	"context"

	"storefront/internal/products"
)

// Item is a raw cart line: a product reference and a quantity.
type Item struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// PricedItem is a cart line joined against the live catalog. Product is nil
// when the referenced product has been deleted since it was added.
type PricedItem struct {
	ProductID string            `json:"product_id"`
	Qty       int               `json:"qty"`
	Product   *products.Product `json:"product"`
}

// View is what cart reads return: the joined items and their running total.
type View struct {
	Items []PricedItem `json:"items"`
	Total int64        `json:"total"`
}

// EmptyView is returned for anonymous identities and missing carts.
func EmptyView() View {
	return View{Items: []PricedItem{}, Total: 0}
}

// Catalog is the slice of the product store the cart join needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (products.Product, error)
}

// Total sums price x qty over the resolvable products. Items whose product
// is gone contribute zero rather than failing the read.
func Total(items []PricedItem) int64 {
	var total int64
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		total += item.Product.PriceCents * int64(item.Qty)
	}
	return total
}
