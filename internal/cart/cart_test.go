package cart

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

type stubCatalog struct {
	packages map[string]models.Package
}

func (s *stubCatalog) PackageByID(id string) (models.Package, bool) {
	pkg, ok := s.packages[id]
	return pkg, ok
}

func newTestCart(t *testing.T) (*Service, *stubCatalog, *storage.Adapter) {
	t.Helper()
	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	catalog := &stubCatalog{packages: map[string]models.Package{
		"pkg-1": {ID: "pkg-1", Title: "Bali Escape", Price: 100},
		"pkg-2": {ID: "pkg-2", Title: "Rome Weekend", Price: 250},
	}}
	svc := NewService(context.Background(), adapter, catalog, events.NewBus(), DefaultMaxQuantity)
	return svc, catalog, adapter
}

func TestAddItem_NewAndIncrement(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 2)
	svc.AddItem(ctx, "pkg-1", 3)

	lines := svc.Items()
	require.Len(t, lines, 1, "adding an existing id increments, never duplicates")
	assert.Equal(t, 5, lines[0].Qty)
}

func TestAddItem_ClampsAtMax(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	for i := 0; i < 20; i++ {
		svc.AddItem(ctx, "pkg-1", 1)
	}

	lines := svc.Items()
	require.Len(t, lines, 1)
	assert.Equal(t, DefaultMaxQuantity, lines[0].Qty)
}

func TestAddItem_ZeroQtyCountsAsOne(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 0)

	lines := svc.Items()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Qty)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		qty     int
		wantQty int
		removed bool
	}{
		{name: "sets quantity", qty: 4, wantQty: 4},
		{name: "clamps to max", qty: 99, wantQty: DefaultMaxQuantity},
		{name: "zero removes the item", qty: 0, removed: true},
		{name: "negative removes the item", qty: -3, removed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestCart(t)
			svc.AddItem(ctx, "pkg-1", 2)

			svc.UpdateQuantity(ctx, "pkg-1", tt.qty)

			lines := svc.Items()
			if tt.removed {
				assert.Empty(t, lines)
				return
			}
			require.Len(t, lines, 1)
			assert.Equal(t, tt.wantQty, lines[0].Qty)
		})
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 1)
	svc.RemoveItem(ctx, "pkg-1")
	assert.Empty(t, svc.Items())

	// Removing an absent id is a no-op.
	svc.RemoveItem(ctx, "pkg-1")
	assert.Empty(t, svc.Items())
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 3) // 3 x 100
	svc.AddItem(ctx, "pkg-2", 1) // 1 x 250

	assert.Equal(t, 550.0, svc.Total())
	assert.Equal(t, 4, svc.ItemsCount(), "count sums quantities, not entries")
}

func TestDanglingPackageJoinsToZero(t *testing.T) {
	ctx := context.Background()
	svc, catalog, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 2)
	delete(catalog.packages, "pkg-1")

	assert.Equal(t, 0.0, svc.Total())

	lines := svc.Items()
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].Package)
	assert.Equal(t, 0.0, lines[0].Total)
	assert.Equal(t, 2, lines[0].Qty)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 2)
	svc.AddItem(ctx, "pkg-2", 1)
	svc.Clear(ctx)

	assert.Empty(t, svc.Items())
	assert.Equal(t, 0, svc.ItemsCount())
}

func TestCartPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	svc, catalog, adapter := newTestCart(t)

	svc.AddItem(ctx, "pkg-1", 3)

	reopened := NewService(ctx, adapter, catalog, events.NewBus(), DefaultMaxQuantity)
	assert.Equal(t, 3, reopened.ItemsCount())
	assert.Equal(t, 300.0, reopened.Total())
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	svc, catalog, _ := newTestCart(t)
	price := catalog.packages["pkg-1"].Price

	svc.AddItem(ctx, "pkg-1", 3)
	assert.Equal(t, 3, svc.ItemsCount())
	assert.Equal(t, 3*price, svc.Total())

	svc.AddItem(ctx, "pkg-1", 9)
	lines := svc.Items()
	require.Len(t, lines, 1)
	assert.Equal(t, 10, lines[0].Qty, "12 clamps to 10")
	assert.Equal(t, 10*price, svc.Total())
}

func TestMutations_PublishCartEvents(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	bus := events.NewBus()
	svc := NewService(ctx, adapter, &stubCatalog{packages: map[string]models.Package{}}, bus, 0)

	var got []events.Event
	bus.Subscribe(func(evt events.Event) { got = append(got, evt) })

	svc.AddItem(ctx, "pkg-1", 1)
	svc.UpdateQuantity(ctx, "pkg-1", 5)
	svc.RemoveItem(ctx, "pkg-1")

	require.Len(t, got, 3)
	for _, evt := range got {
		assert.Equal(t, events.TopicCart, evt.Topic)
	}

	snapshot, ok := got[1].Payload.([]models.CartItem)
	require.True(t, ok)
	require.Len(t, snapshot, 1)
	assert.Equal(t, 5, snapshot[0].Qty)
}
