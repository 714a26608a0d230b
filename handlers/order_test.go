package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	e := setupAPI(t)

	body := map[string]any{
		"email": "buyer@example.com",
		"items": []map[string]any{
			{"product_id": "p1", "title": "Icon Pack", "price_cents": 2900, "qty": 1},
			{"product_id": "p2", "title": "UI Kit", "price_cents": 3900, "qty": 2},
		},
		"amount_total_cents": 10700,
		"currency":           "usd",
		"payment_session_id": "cs_123_abc",
	}
	headers := map[string]string{"X-Session-Id": "cs_sess_1"}

	w := doJSON(t, e.router, http.MethodPost, "/v1/orders/create", body, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OrderID        string   `json:"order_id"`
		DownloadTokens []string `json:"download_tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.OrderID)
	require.Len(t, resp.DownloadTokens, 2, "one token per line item")

	require.Len(t, e.orders.created, 1)
	require.Empty(t, e.orders.created[0].UserID, "session checkout must not record a user id")
}

func TestCreateOrderValidation(t *testing.T) {
	e := setupAPI(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{
			"items":              []map[string]any{{"product_id": "p1", "title": "T", "price_cents": 100, "qty": 1}},
			"currency":           "usd",
			"payment_session_id": "cs_1",
		}},
		{"empty items", map[string]any{
			"email":              "buyer@example.com",
			"items":              []map[string]any{},
			"currency":           "usd",
			"payment_session_id": "cs_1",
		}},
		{"bad currency", map[string]any{
			"email":              "buyer@example.com",
			"items":              []map[string]any{{"product_id": "p1", "title": "T", "price_cents": 100, "qty": 1}},
			"currency":           "dollars",
			"payment_session_id": "cs_1",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, e.router, http.MethodPost, "/v1/orders/create", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Empty(t, e.orders.created)
		})
	}
}

func TestListOrdersAnonymous(t *testing.T) {
	e := setupAPI(t)

	// No token and no session header: the store must not even be consulted.
	w := doJSON(t, e.router, http.MethodGet, "/v1/orders/list", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"orders":[]}`, w.Body.String())
	require.Zero(t, e.orders.listCalls)

	// A session id is not a user either; orders stay user-scoped.
	w = doJSON(t, e.router, http.MethodGet, "/v1/orders/list", nil,
		map[string]string{"X-Session-Id": "cs_sess_1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"orders":[]}`, w.Body.String())
	require.Zero(t, e.orders.listCalls)
}

func TestGetOrderByPaymentSessionNotFound(t *testing.T) {
	e := setupAPI(t)

	w := doJSON(t, e.router, http.MethodGet, "/v1/orders/by-session/cs_missing", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
