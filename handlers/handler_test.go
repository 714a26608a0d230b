package handlers_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/downloads"
	"storefront/internal/identity"
	"storefront/internal/orders"
	"storefront/internal/products"

	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	byID map[string]products.Product
}

func (f *fakeCatalog) List(ctx context.Context, category, search string, limit int) ([]products.Product, error) {
	var out []products.Product
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetBySlug(ctx context.Context, slug string) (products.Product, error) {
	for _, p := range f.byID {
		if p.Slug == slug && p.IsPublished {
			return p, nil
		}
	}
	return products.Product{}, products.ErrNotFound
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (products.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetFeatured(ctx context.Context) ([]products.Product, error) {
	return f.List(ctx, "", "", 3)
}

func (f *fakeCatalog) Insert(ctx context.Context, np products.NewProduct) (products.Product, error) {
	p := products.Product{ID: "new-id", Slug: np.Slug, Title: np.Title, IsPublished: true}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) Update(ctx context.Context, id string, up products.UpdateProduct) (products.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]string, error) {
	return []string{"Testing"}, nil
}

type fakeCart struct {
	views map[string]cart.View
	added []string
}

func (f *fakeCart) Get(ctx context.Context, id identity.Identity) (cart.View, error) {
	if id.IsAnonymous() {
		return cart.EmptyView(), nil
	}
	view, ok := f.views[id.ID]
	if !ok {
		return cart.EmptyView(), nil
	}
	return view, nil
}

func (f *fakeCart) AddItem(ctx context.Context, id identity.Identity, productID string, qty int) error {
	if !id.IsAnonymous() {
		f.added = append(f.added, productID)
	}
	return nil
}

func (f *fakeCart) UpdateQty(ctx context.Context, id identity.Identity, productID string, qty int) error {
	return nil
}

func (f *fakeCart) RemoveItem(ctx context.Context, id identity.Identity, productID string) error {
	return nil
}

func (f *fakeCart) Clear(ctx context.Context, id identity.Identity) error { return nil }

type fakeOrders struct {
	created   []orders.Order
	listCalls int
}

func (f *fakeOrders) Create(ctx context.Context, email string, items []orders.LineItem,
	amountTotalCents int64, currency, paymentSessionID string, id identity.Identity) (orders.Order, error) {

	tokens := make([]string, len(items))
	for i := range items {
		tokens[i] = orders.NewToken()
	}
	o := orders.Order{
		ID:               "order-1",
		UserID:           id.UserID(),
		Email:            email,
		Items:            items,
		AmountTotalCents: amountTotalCents,
		Currency:         currency,
		PaymentSessionID: paymentSessionID,
		PaymentStatus:    orders.StatusPaid,
		DownloadTokens:   tokens,
	}
	f.created = append(f.created, o)
	return o, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	f.listCalls++
	return nil, nil
}

func (f *fakeOrders) GetByPaymentSession(ctx context.Context, paymentSessionID string) (orders.Order, error) {
	for _, o := range f.created {
		if o.PaymentSessionID == paymentSessionID {
			return o, nil
		}
	}
	return orders.Order{}, orders.ErrNotFound
}

type fakeDownloads struct {
	results map[string]downloads.Result
	expired map[string]bool
}

func (f *fakeDownloads) Resolve(ctx context.Context, token string) (downloads.Result, error) {
	if f.expired[token] {
		return downloads.Result{}, downloads.ErrExpired
	}
	result, ok := f.results[token]
	if !ok {
		return downloads.Result{}, downloads.ErrNotFound
	}
	return result, nil
}

func (f *fakeDownloads) MarkUsed(ctx context.Context, token string) error {
	if _, ok := f.results[token]; !ok {
		return downloads.ErrNotFound
	}
	return nil
}

type env struct {
	router   http.Handler
	catalog  *fakeCatalog
	cart     *fakeCart
	orders   *fakeOrders
	download *fakeDownloads
}

func setupAPI(t *testing.T) env {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := auth.NewKeys(&key.PublicKey)
	require.NoError(t, err)

	e := env{
		catalog:  &fakeCatalog{byID: map[string]products.Product{}},
		cart:     &fakeCart{views: map[string]cart.View{}},
		orders:   &fakeOrders{},
		download: &fakeDownloads{results: map[string]downloads.Result{}, expired: map[string]bool{}},
	}
	e.router = handlers.API("/v1", keys, e.catalog, e.cart, e.orders, e.download,
		checkout.NewMockGateway("http://localhost:3000"), nil)
	return e
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
