package handlers_test

import (
	"net/http"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/products"

	"github.com/stretchr/testify/require"
)

func TestGetCart(t *testing.T) {
	e := setupAPI(t)
	p := products.Product{ID: "p1", Title: "Icon Pack", PriceCents: 2900}
	e.cart.views["cs_sess_1"] = cart.View{
		Items: []cart.PricedItem{{ProductID: "p1", Qty: 2, Product: &p}},
		Total: 5800,
	}

	t.Run("session cart", func(t *testing.T) {
		w := doJSON(t, e.router, http.MethodGet, "/v1/cart", nil,
			map[string]string{"X-Session-Id": "cs_sess_1"})
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"total":5800`)
	})

	t.Run("anonymous gets an empty cart", func(t *testing.T) {
		w := doJSON(t, e.router, http.MethodGet, "/v1/cart", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
	})
}

func TestAddCartItem(t *testing.T) {
	e := setupAPI(t)
	headers := map[string]string{"X-Session-Id": "cs_sess_1"}

	w := doJSON(t, e.router, http.MethodPost, "/v1/cart/add-item",
		map[string]any{"product_id": "p1", "qty": 2}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"p1"}, e.cart.added)

	t.Run("rejects non-positive qty", func(t *testing.T) {
		w := doJSON(t, e.router, http.MethodPost, "/v1/cart/add-item",
			map[string]any{"product_id": "p1", "qty": 0}, headers)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing product id", func(t *testing.T) {
		w := doJSON(t, e.router, http.MethodPost, "/v1/cart/add-item",
			map[string]any{"qty": 1}, headers)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateCartQtyRequiresProductID(t *testing.T) {
	e := setupAPI(t)

	w := doJSON(t, e.router, http.MethodPut, "/v1/cart/update-qty",
		map[string]any{"qty": 3}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
