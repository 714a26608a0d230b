package orders_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"storefront/internal/identity"
	"storefront/internal/orders"
	"storefront/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrders(t *testing.T) (*orders.Conf, *sql.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db := testhelpers.StartPostgres(t)
	conf, err := orders.NewConf(db)
	require.NoError(t, err)
	return conf, db
}

func twoLineItems() []orders.LineItem {
	return []orders.LineItem{
		{ProductID: "11111111-1111-1111-1111-111111111111", Title: "Guide", PriceCents: 1900, Qty: 1},
		{ProductID: "22222222-2222-2222-2222-222222222222", Title: "Course", PriceCents: 3900, Qty: 2},
	}
}

func TestCreateMintsOneDownloadPerLineItem(t *testing.T) {
	conf, db := setupOrders(t)
	ctx := context.Background()

	before := time.Now().UTC()
	order, err := conf.Create(ctx, "buyer@example.com", twoLineItems(), 9700, "usd",
		"cs_test_1", identity.Resolve("user-1", ""))
	require.NoError(t, err)
	after := time.Now().UTC()

	require.Len(t, order.DownloadTokens, 2)
	assert.NotEqual(t, order.DownloadTokens[0], order.DownloadTokens[1], "tokens unique within batch")
	assert.Equal(t, orders.StatusPaid, order.PaymentStatus)

	rows, err := db.QueryContext(ctx, `
		SELECT token, email, expires_at FROM downloads WHERE order_id = $1 ORDER BY id
	`, order.ID)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		var token, email string
		var expiresAt time.Time
		require.NoError(t, rows.Scan(&token, &email, &expiresAt))
		assert.Equal(t, order.DownloadTokens[count], token)
		assert.Equal(t, "buyer@example.com", email)
		assert.False(t, expiresAt.Before(before.Add(orders.DownloadTTL)), "expiry at least creation + TTL")
		assert.False(t, expiresAt.After(after.Add(orders.DownloadTTL)), "expiry at most creation + TTL")
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 2, count, "exactly one download per line item")
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	conf, _ := setupOrders(t)
	_, err := conf.Create(context.Background(), "buyer@example.com", nil, 0, "usd",
		"cs_test_empty", identity.Identity{})
	assert.Error(t, err)
}

func TestGetByPaymentSession(t *testing.T) {
	conf, _ := setupOrders(t)
	ctx := context.Background()

	created, err := conf.Create(ctx, "buyer@example.com", twoLineItems(), 9700, "usd",
		"cs_test_lookup", identity.Resolve("", "sess-1"))
	require.NoError(t, err)
	assert.Empty(t, created.UserID, "session identities never own orders")

	got, err := conf.GetByPaymentSession(ctx, "cs_test_lookup")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(9700), got.AmountTotalCents)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Guide", got.Items[0].Title)
	assert.Len(t, got.DownloadTokens, 2)

	_, err = conf.GetByPaymentSession(ctx, "cs_missing")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestListByUserMostRecentFirst(t *testing.T) {
	conf, _ := setupOrders(t)
	ctx := context.Background()
	user := identity.Resolve("user-list", "")

	first, err := conf.Create(ctx, "a@example.com", twoLineItems(), 100, "usd", "cs_a", user)
	require.NoError(t, err)
	second, err := conf.Create(ctx, "a@example.com", twoLineItems(), 200, "usd", "cs_b", user)
	require.NoError(t, err)

	list, err := conf.ListByUser(ctx, "user-list")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	other, err := conf.ListByUser(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)
}
