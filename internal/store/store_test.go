package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiumachile/billpro/internal/catalog"
	"github.com/xiumachile/billpro/internal/db"
	"github.com/xiumachile/billpro/internal/logger"
	"github.com/xiumachile/billpro/internal/migrations"
	"github.com/xiumachile/billpro/internal/report"
	"github.com/xiumachile/billpro/internal/sales"
	"github.com/xiumachile/billpro/internal/seed"
)

var santiago = time.FixedZone("CLT", -3*60*60)

var seededAt = time.Date(2024, 3, 15, 15, 0, 0, 0, santiago)

func openSeeded(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, migrations.Up(database.DB))

	_, err = seed.Run(database, seed.Config{Demo: true, Now: seededAt, Location: santiago})
	require.NoError(t, err)

	log := logger.NewWithWriter(logger.Config{Level: "error"}, &bytes.Buffer{})
	return New(database, log), database
}

func TestLoadCatalog(t *testing.T) {
	s, _ := openSeeded(t)

	cat, err := s.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Version())

	italiano, ok := cat.Product(100)
	require.True(t, ok)
	comp, ok := italiano.Composition.(catalog.Composite)
	require.True(t, ok, spew.Sdump(italiano))
	assert.Len(t, comp.Lines, 5)
	require.NotNil(t, italiano.CategoryID)
	assert.Equal(t, int64(1), *italiano.CategoryID)

	agua, ok := cat.Product(104)
	require.True(t, ok)
	direct, ok := agua.Composition.(catalog.Direct)
	require.True(t, ok)
	require.NotNil(t, direct.IngredientID)
	assert.Equal(t, int64(19), *direct.IngredientID)

	mayo, ok := cat.Ingredient(14)
	require.True(t, ok)
	assert.Nil(t, mayo.LastPurchasePrice)
	require.NotNil(t, mayo.PurchasePrice)
	assert.Equal(t, 3200.0, *mayo.PurchasePrice)

	combo, ok := cat.Combo(200)
	require.True(t, ok)
	assert.Len(t, combo.Items, 3)

	dozen := cat.Unit(ptr[int64](8))
	require.NotNil(t, dozen)
	assert.Equal(t, 12.0, dozen.BaseFactor)
}

func TestLoadCatalog_VersionChangesWithPrices(t *testing.T) {
	s, database := openSeeded(t)
	ctx := context.Background()

	before, err := s.LoadCatalog(ctx)
	require.NoError(t, err)

	_, err = database.Exec(`UPDATE ingredients SET last_purchase_price = 9900, updated_at = '2999-01-01 00:00:00' WHERE id = 11`)
	require.NoError(t, err)

	after, err := s.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.Version(), after.Version())
}

func TestListOrders(t *testing.T) {
	s, _ := openSeeded(t)

	rng, err := report.Preset("semana", seededAt, santiago)
	require.NoError(t, err)

	orders, err := s.ListOrders(context.Background(), OrderQuery{From: rng.From, To: rng.To, Statuses: sales.ReportableStatuses})
	require.NoError(t, err)

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		assert.True(t, o.Status.Reportable())
	}
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 6}, ids)

	var six sales.Order
	for _, o := range orders {
		if o.ID == 6 {
			six = o
		}
	}
	assert.Nil(t, six.Seller)
	require.Len(t, six.Combos, 1)
	require.NotNil(t, six.Combos[0].Snapshot)
	assert.Len(t, six.Combos[0].Snapshot, 2)

	var two sales.Order
	for _, o := range orders {
		if o.ID == 2 {
			two = o
		}
	}
	assert.Equal(t, "Rappi", two.DeliveryApp)
	require.NotNil(t, two.TotalCollected)
	assert.Nil(t, two.Combos[0].Snapshot)
	assert.Equal(t, "Jorge", two.Seller.Name)
}

func TestListOrders_AllStatuses(t *testing.T) {
	s, _ := openSeeded(t)

	orders, err := s.ListOrders(context.Background(), OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, orders, 8)
}

// The demo week, costed end to end through the store.
func TestWeeklyReportOverSeededData(t *testing.T) {
	s, _ := openSeeded(t)
	ctx := context.Background()

	cat, err := s.LoadCatalog(ctx)
	require.NoError(t, err)
	rng, err := report.Preset("semana", seededAt, santiago)
	require.NoError(t, err)
	orders, err := s.ListOrders(ctx, OrderQuery{From: rng.From, To: rng.To, Statuses: sales.ReportableStatuses})
	require.NoError(t, err)

	res := report.Build(cat, orders, rng, report.Filters{})

	if !assert.Equal(t, 5, res.OrderCount) {
		t.Log(spew.Sdump(res))
	}
	assert.Equal(t, "69500", res.NetSales.String())
	assert.InDelta(t, 22829, res.TotalCost.InexactFloat64(), 0.01)
	assert.Equal(t, 2, res.UnreliableConversions)
	assert.True(t, res.GrossProfit.Equal(res.NetSales.Sub(res.TotalCost)))
}

func TestUsers(t *testing.T) {
	s, _ := openSeeded(t)
	ctx := context.Background()

	_, err := s.PasswordHash(ctx, "nobody@billpro.cl")
	assert.True(t, errors.Is(err, ErrNotFound))

	inserted, err := s.EnsureUser(ctx, "ana@billpro.cl", "hash-1")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.EnsureUser(ctx, "ana@billpro.cl", "hash-2")
	require.NoError(t, err)
	assert.False(t, inserted)

	hash, err := s.PasswordHash(ctx, "ana@billpro.cl")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)
}

func TestListSellers(t *testing.T) {
	s, _ := openSeeded(t)

	sellers, err := s.ListSellers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []sales.Seller{{ID: 1, Name: "Camila"}, {ID: 2, Name: "Jorge"}, {ID: 3, Name: "Valentina"}}, sellers)
}

func TestDecodeSnapshot(t *testing.T) {
	got, err := decodeSnapshot(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = decodeSnapshot(ptr("null"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = decodeSnapshot(ptr("[]"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = decodeSnapshot(ptr("{bad"))
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-01-31T23:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, 31, got.Day())

	got, err = ParseTimestamp("2024-01-31 12:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
