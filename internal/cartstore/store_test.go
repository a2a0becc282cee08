package cartstore

import (
	"context"
	"errors"
	"testing"

	"github.com/greensolartech/storefront/internal/cart"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f failingKV) Set(context.Context, string, string) error {
	return f.setErr
}

func (f failingKV) Del(context.Context, string) error {
	return nil
}

func newMemoryStore() (*Store, *MemoryKV) {
	kv := NewMemoryKV()
	return NewStore(kv, Namespace("gst"), nil, nil), kv
}

func sampleItems() []cart.LineItem {
	return []cart.LineItem{
		{ID: "123", Name: "Inverter X", Price: decimal.NewFromInt(15000), Image: "/img/x.jpg", Quantity: 2},
		{ID: "p2", Name: "Panel", Price: decimal.RequireFromString("4999.5"), Quantity: 1},
	}
}

func assertSameItems(t *testing.T, want, got []cart.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Image, got[i].Image)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price %s != %s", want[i].Price, got[i].Price)
	}
}

func TestSessionKeys(t *testing.T) {
	store, _ := newMemoryStore()
	a := store.ForSession("abc")
	require.Equal(t, "gst:cart:abc", a.Key())
	require.Equal(t, []string{"gst:greensolartech_cart:abc", "gst:shoppingCart:abc"}, a.legacyKeys)
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	store, _ := newMemoryStore()
	items := store.ForSession("s1").Load(context.Background())
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, kv := newMemoryStore()
	a := store.ForSession("s1")

	require.NoError(t, a.Save(ctx, sampleItems()))
	assertSameItems(t, sampleItems(), a.Load(ctx))

	raw, ok, _ := kv.Get(ctx, a.Key())
	require.True(t, ok)
	require.JSONEq(t, `[
		{"id":"123","name":"Inverter X","price":15000,"image":"/img/x.jpg","quantity":2},
		{"id":"p2","name":"Panel","price":4999.5,"quantity":1}
	]`, raw)
}

func TestClearWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store, kv := newMemoryStore()
	a := store.ForSession("s1")
	require.NoError(t, a.Save(ctx, sampleItems()))
	require.NoError(t, a.Clear(ctx))

	raw, ok, _ := kv.Get(ctx, a.Key())
	require.True(t, ok)
	require.Equal(t, "[]", raw)
	require.Empty(t, a.Load(ctx))
}

func TestLoadCorruptRecordsReturnEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{
		"{not json",
		`{"items":[]}`,
		`"cart"`,
		`[1,2,3]`,
		``,
	} {
		store, kv := newMemoryStore()
		a := store.ForSession("s1")
		require.NoError(t, kv.Set(ctx, a.Key(), raw))
		items := a.Load(ctx)
		require.NotNil(t, items, "raw=%q", raw)
		require.Empty(t, items, "raw=%q", raw)
	}
}

func TestLoadCapsStoredQuantities(t *testing.T) {
	ctx := context.Background()
	store, kv := newMemoryStore()
	a := store.ForSession("s1")
	require.NoError(t, kv.Set(ctx, a.Key(), `[
		{"id":"a","name":"A","price":1,"quantity":9223372036854775807},
		{"id":"b","name":"B","price":1,"quantity":600},
		{"id":"b","name":"B","price":1,"quantity":600}
	]`))

	items := a.Load(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, cart.MaxQuantity, items[0].Quantity)
	assert.Equal(t, cart.MaxQuantity, items[1].Quantity)
}

func TestLoadNormalizesLegacyShapes(t *testing.T) {
	ctx := context.Background()
	store, kv := newMemoryStore()
	a := store.ForSession("s1")
	require.NoError(t, kv.Set(ctx, a.Key(), `[
		{"id": 7, "name": "Battery", "unitPrice": "12 500,50 ₴", "quantity": "2"},
		{"id": "7", "name": "Battery", "price": 12500.5, "quantity": 1},
		{"id": "007", "name": "Cable", "price": "99", "quantity": 0},
		{"id": "x", "name": "No price"},
		{"name": "No id", "price": 1},
		{"id": "neg", "name": "Negative", "price": -4}
	]`))

	items := a.Load(ctx)
	require.Len(t, items, 2)

	assert.Equal(t, "7", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("12500.5")))

	assert.Equal(t, "007", items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)
	assert.True(t, items[1].Price.Equal(decimal.NewFromInt(99)))
}

func TestLegacyRecordIsMigrated(t *testing.T) {
	ctx := context.Background()
	store, kv := newMemoryStore()
	a := store.ForSession("s1")
	legacyKey := Namespace("gst").Key("shoppingCart", "s1")
	require.NoError(t, kv.Set(ctx, legacyKey, `[{"id":"a","name":"A","unitPrice":10,"quantity":1}]`))

	items := a.Load(ctx)
	require.Len(t, items, 1)

	_, ok, _ := kv.Get(ctx, legacyKey)
	require.False(t, ok, "legacy key should be removed")

	raw, ok, _ := kv.Get(ctx, a.Key())
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"a","name":"A","price":10,"quantity":1}]`, raw)
}

func TestReadFailureLoadsEmpty(t *testing.T) {
	store := NewStore(failingKV{getErr: errors.New("storage disabled")}, Namespace("gst"), nil, nil)
	require.Empty(t, store.ForSession("s1").Load(context.Background()))
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)
	store := NewStore(failingKV{setErr: errors.New("quota exceeded")}, Namespace("gst"), nil, m)

	err := store.ForSession("s1").Save(context.Background(), sampleItems())
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePersistence))

	count, err := testutil.GatherAndCount(reg, "cart_persistence_failures_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAdapterAsCartPersister(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryStore()
	a := store.ForSession("s1")

	c := cart.New(a.Load(ctx), cart.WithPersister(a))
	_, err := c.AddItem(ctx, cart.ProductInput{ID: "p1", Name: "Panel", Price: "5000"})
	require.NoError(t, err)
	_, err = c.AddItem(ctx, cart.ProductInput{ID: "p1", Name: "Panel", Price: "5000"})
	require.NoError(t, err)

	reloaded := cart.New(store.ForSession("s1").Load(ctx))
	require.Equal(t, 2, reloaded.TotalQuantity())
	require.True(t, reloaded.TotalPrice().Equal(decimal.NewFromInt(10000)))
}
