package downloads_test

import (
	"context"
	"database/sql"
	"testing"

	"storefront/internal/downloads"
	"storefront/internal/identity"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	dConf *downloads.Conf
	pConf *products.Conf
	oConf *orders.Conf
}

func setupDownloads(t *testing.T) fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db := testhelpers.StartPostgres(t)
	pConf, err := products.NewConf(db)
	require.NoError(t, err)
	oConf, err := orders.NewConf(db)
	require.NoError(t, err)
	dConf, err := downloads.NewConf(db, pConf)
	require.NoError(t, err)
	return fixture{db: db, dConf: dConf, pConf: pConf, oConf: oConf}
}

// purchase inserts a product and an order for it, returning both.
func (f fixture) purchase(t *testing.T, ctx context.Context) (products.Product, orders.Order) {
	t.Helper()
	p, err := f.pConf.Insert(ctx, products.NewProduct{
		Slug:           "purchased",
		Title:          "Purchased Product",
		Description:    "desc",
		PriceCents:     1900,
		Currency:       "usd",
		ThumbnailURL:   "https://example.com/thumb.png",
		Category:       "Testing",
		DigitalFileURL: "https://example.com/file.pdf",
	})
	require.NoError(t, err)

	order, err := f.oConf.Create(ctx, "buyer@example.com", []orders.LineItem{
		{ProductID: p.ID, Title: p.Title, PriceCents: p.PriceCents, Qty: 1},
	}, 1900, "usd", "cs_dl_test", identity.Resolve("user-dl", ""))
	require.NoError(t, err)
	require.Len(t, order.DownloadTokens, 1)
	return p, order
}

func TestResolveValidToken(t *testing.T) {
	f := setupDownloads(t)
	ctx := context.Background()
	p, order := f.purchase(t, ctx)

	result, err := f.dConf.Resolve(ctx, order.DownloadTokens[0])
	require.NoError(t, err)
	assert.Equal(t, p.ID, result.Product.ID)
	assert.Equal(t, order.ID, result.Download.OrderID)
	assert.Equal(t, "buyer@example.com", result.Download.Email)
	assert.Nil(t, result.Download.UsedAt)
}

func TestResolveUnknownToken(t *testing.T) {
	f := setupDownloads(t)
	_, err := f.dConf.Resolve(context.Background(), "dl_does_not_exist")
	assert.ErrorIs(t, err, downloads.ErrNotFound)
}

func TestResolveExpiredToken(t *testing.T) {
	f := setupDownloads(t)
	ctx := context.Background()
	_, order := f.purchase(t, ctx)
	token := order.DownloadTokens[0]

	_, err := f.db.ExecContext(ctx,
		`UPDATE downloads SET expires_at = NOW() - INTERVAL '1 hour' WHERE token = $1`, token)
	require.NoError(t, err)

	_, err = f.dConf.Resolve(ctx, token)
	assert.ErrorIs(t, err, downloads.ErrExpired)
}

func TestResolveDeletedProduct(t *testing.T) {
	f := setupDownloads(t)
	ctx := context.Background()
	p, order := f.purchase(t, ctx)

	require.NoError(t, f.pConf.Delete(ctx, p.ID))

	_, err := f.dConf.Resolve(ctx, order.DownloadTokens[0])
	assert.ErrorIs(t, err, downloads.ErrNotFound)
}

func TestMarkUsedRecordsWithoutRevoking(t *testing.T) {
	f := setupDownloads(t)
	ctx := context.Background()
	_, order := f.purchase(t, ctx)
	token := order.DownloadTokens[0]

	require.NoError(t, f.dConf.MarkUsed(ctx, token))

	result, err := f.dConf.Resolve(ctx, token)
	require.NoError(t, err, "marking used must not block later resolution")
	require.NotNil(t, result.Download.UsedAt)

	assert.ErrorIs(t, f.dConf.MarkUsed(ctx, "dl_unknown"), downloads.ErrNotFound)
}
