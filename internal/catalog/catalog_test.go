package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Adapter) {
	t.Helper()
	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	svc := NewService(adapter, nil, events.NewBus(), zerolog.Nop())
	svc.Initialize(context.Background())
	return svc, adapter
}

func TestInitialize_ReloadsPersistedState(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	storage.Write(ctx, adapter, storage.KeyDestinations, []models.Destination{{ID: "d1", Slug: "bali"}})
	storage.Write(ctx, adapter, storage.KeyOrders, []models.Order{{ID: "o1"}})

	svc := NewService(adapter, nil, events.NewBus(), zerolog.Nop())
	assert.False(t, svc.Initialized())

	svc.Initialize(ctx)

	assert.True(t, svc.Initialized())
	assert.Len(t, svc.Destinations(), 1)
	assert.Len(t, svc.Orders(), 1)

	// Repeat calls just re-read current state.
	svc.Initialize(ctx)
	assert.Len(t, svc.Destinations(), 1)
}

func TestAddDestination_AssignsIDAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, adapter := newTestService(t)

	created := svc.AddDestination(ctx, models.Destination{Slug: "bali", Name: "Bali"})
	assert.NotEmpty(t, created.ID)

	persisted := storage.Read(ctx, adapter, storage.KeyDestinations, []models.Destination{})
	require.Len(t, persisted, 1)
	assert.Equal(t, created.ID, persisted[0].ID)
}

func TestUpdateDestination(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created := svc.AddDestination(ctx, models.Destination{Slug: "bali", Name: "Bali", Rating: 4.0})

	created.Rating = 4.9
	assert.True(t, svc.UpdateDestination(ctx, created))

	got, ok := svc.DestinationByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, 4.9, got.Rating)

	assert.False(t, svc.UpdateDestination(ctx, models.Destination{ID: "missing"}))
}

func TestDeleteDestination_CascadesToPackages(t *testing.T) {
	ctx := context.Background()
	svc, adapter := newTestService(t)

	dest := svc.AddDestination(ctx, models.Destination{Slug: "bali", Name: "Bali"})
	other := svc.AddDestination(ctx, models.Destination{Slug: "rome", Name: "Rome"})

	svc.AddPackage(ctx, models.Package{ID: "pkg-1", DestinationID: dest.ID, Title: "Bali Escape"})
	svc.AddPackage(ctx, models.Package{ID: "pkg-2", DestinationID: dest.ID, Title: "Bali Deluxe"})
	svc.AddPackage(ctx, models.Package{ID: "pkg-3", DestinationID: other.ID, Title: "Rome Weekend"})

	svc.DeleteDestination(ctx, dest.ID)

	_, ok := svc.DestinationByID(dest.ID)
	assert.False(t, ok)
	assert.Empty(t, svc.PackagesByDestination(dest.ID))
	assert.Len(t, svc.Packages(), 1)

	// Both collections were persisted in the same logical write.
	persisted := storage.Read(ctx, adapter, storage.KeyPackages, []models.Package{})
	require.Len(t, persisted, 1)
	assert.Equal(t, "pkg-3", persisted[0].ID)
}

func TestDestinationLookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	dest := svc.AddDestination(ctx, models.Destination{Slug: "santorini", Name: "Santorini"})

	bySlug, ok := svc.DestinationBySlug("santorini")
	require.True(t, ok)
	assert.Equal(t, dest.ID, bySlug.ID)

	_, ok = svc.DestinationBySlug("atlantis")
	assert.False(t, ok)
}

func TestFeaturedDestinations_CappedAtSix(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 9; i++ {
		svc.AddDestination(ctx, models.Destination{
			Slug:    fmt.Sprintf("dest-%d", i),
			Name:    fmt.Sprintf("Destination %d", i),
			Popular: i%3 != 0, // six popular out of nine
		})
	}

	featured := svc.FeaturedDestinations()
	assert.Len(t, featured, 6)
	for _, d := range featured {
		assert.True(t, d.Popular)
	}
}

func TestPopularDestinations_SortedByRatingCappedAtEight(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 10; i++ {
		svc.AddDestination(ctx, models.Destination{
			Slug:   fmt.Sprintf("dest-%d", i),
			Rating: float64(i) / 2,
		})
	}

	popular := svc.PopularDestinations()
	require.Len(t, popular, 8)
	for i := 1; i < len(popular); i++ {
		assert.GreaterOrEqual(t, popular[i-1].Rating, popular[i].Rating)
	}
	assert.Equal(t, 4.5, popular[0].Rating)
}

func TestCreateOrder_ImmutableAgainstPackageEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	pkg := svc.AddPackage(ctx, models.Package{ID: "pkg-1", Title: "Bali Escape", Price: 1299})

	order := svc.CreateOrder(ctx, models.Order{
		Items: []models.OrderItem{
			{PackageID: pkg.ID, Qty: 2, UnitPrice: pkg.Price, Title: pkg.Title},
		},
		Total:    2598,
		Customer: models.Customer{Name: "Maria", Email: "maria@example.com"},
		Status:   models.OrderStatusPaid,
	})
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())

	// Edit the live package after the sale.
	pkg.Price = 1999
	pkg.Title = "Bali Escape Deluxe"
	require.True(t, svc.UpdatePackage(ctx, pkg))

	orders := svc.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 1299.0, orders[0].Items[0].UnitPrice)
	assert.Equal(t, "Bali Escape", orders[0].Items[0].Title)
}

func TestDeals_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	deal := svc.AddDeal(ctx, models.Deal{Title: "Summer Sale", Discount: 20})
	assert.NotEmpty(t, deal.ID)

	deal.Discount = 30
	assert.True(t, svc.UpdateDeal(ctx, deal))

	svc.DeleteDeal(ctx, deal.ID)
	assert.Empty(t, svc.Deals())
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	svc.AddDestination(ctx, models.Destination{ID: "d1", Slug: "bali", Name: "Bali"})
	svc.AddPackage(ctx, models.Package{ID: "p1", DestinationID: "d1", Title: "Bali Escape"})

	raw, err := svc.ExportData()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"exportedAt"`)

	// Import into a fresh service.
	other, _ := newTestService(t)
	require.NoError(t, other.ImportData(ctx, bytes.NewReader(raw)))

	assert.Len(t, other.Destinations(), 1)
	assert.Len(t, other.Packages(), 1)
}

func TestImportData_PartialDocumentLeavesRestUntouched(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	svc.AddDestination(ctx, models.Destination{ID: "d1", Slug: "bali", Name: "Bali"})
	svc.AddDeal(ctx, models.Deal{ID: "deal-1", Title: "Summer Sale"})

	doc := `{"destinations":[{"id":"d2","slug":"rome","name":"Rome"}]}`
	require.NoError(t, svc.ImportData(ctx, strings.NewReader(doc)))

	require.Len(t, svc.Destinations(), 1)
	assert.Equal(t, "d2", svc.Destinations()[0].ID)
	assert.Len(t, svc.Deals(), 1, "absent collections stay untouched")
}

func TestImportData_MalformedWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, adapter := newTestService(t)

	svc.AddDestination(ctx, models.Destination{ID: "d1", Slug: "bali", Name: "Bali"})

	err := svc.ImportData(ctx, strings.NewReader("{this is not json"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Len(t, svc.Destinations(), 1)
	persisted := storage.Read(ctx, adapter, storage.KeyDestinations, []models.Destination{})
	assert.Len(t, persisted, 1)
}

func TestResetAll_WipesStoreAndMirrors(t *testing.T) {
	ctx := context.Background()
	svc, adapter := newTestService(t)

	svc.AddDestination(ctx, models.Destination{ID: "d1", Slug: "bali", Name: "Bali"})
	storage.Write(ctx, adapter, storage.KeyInitialized, true)

	svc.ResetAll(ctx)

	assert.Empty(t, svc.Destinations())
	assert.False(t, svc.Initialized())
	assert.False(t, storage.Read(ctx, adapter, storage.KeyInitialized, false))
}

func TestMutators_PublishChangeEvents(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	bus := events.NewBus()
	svc := NewService(adapter, nil, bus, zerolog.Nop())
	svc.Initialize(ctx)

	var topics []events.Topic
	bus.Subscribe(func(evt events.Event) {
		topics = append(topics, evt.Topic)
	})

	dest := svc.AddDestination(ctx, models.Destination{Slug: "bali", Name: "Bali"})
	svc.AddPackage(ctx, models.Package{DestinationID: dest.ID, Title: "Bali Escape"})
	svc.DeleteDestination(ctx, dest.ID)

	assert.Equal(t, []events.Topic{
		events.TopicDestinations,
		events.TopicPackages,
		events.TopicDestinations,
		events.TopicPackages,
	}, topics)
}
