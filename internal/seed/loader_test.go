package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

func seedServer(t *testing.T, requests *atomic.Int64, failPath string) *httptest.Server {
	t.Helper()

	payloads := map[string]string{
		"/destinations.json": `[{"id":"dest-1","slug":"santorini","name":"Santorini","region":"Europe","rating":4.8}]`,
		"/packages.json":     `[{"id":"pkg-1","destinationId":"dest-1","title":"Santorini Escape","price":1299}]`,
		"/deals.json":        `[{"id":"deal-1","title":"Summer Sale","discount":20}]`,
		"/testimonials.json": `[{"id":"t-1","name":"Maria","rating":5,"comment":"Wonderful trip"}]`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == failPath {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnsureSeeded_LoadsAllCollections(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int64
	srv := seedServer(t, &requests, "")

	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	loader := NewLoader(adapter, srv.URL, zerolog.Nop())

	require.NoError(t, loader.EnsureSeeded(ctx))

	destinations := storage.Read(ctx, adapter, storage.KeyDestinations, []models.Destination{})
	require.Len(t, destinations, 1)
	assert.Equal(t, "santorini", destinations[0].Slug)

	packages := storage.Read(ctx, adapter, storage.KeyPackages, []models.Package{})
	require.Len(t, packages, 1)
	assert.Equal(t, "dest-1", packages[0].DestinationID)

	assert.Len(t, storage.Read(ctx, adapter, storage.KeyDeals, []models.Deal{}), 1)
	assert.Len(t, storage.Read(ctx, adapter, storage.KeyTestimonials, []models.Testimonial{}), 1)
	assert.True(t, storage.Read(ctx, adapter, storage.KeyInitialized, false))
}

func TestEnsureSeeded_SecondCallIsNoop(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int64
	srv := seedServer(t, &requests, "")

	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	loader := NewLoader(adapter, srv.URL, zerolog.Nop())

	require.NoError(t, loader.EnsureSeeded(ctx))
	fetched := requests.Load()
	assert.EqualValues(t, 4, fetched)

	require.NoError(t, loader.EnsureSeeded(ctx))
	assert.Equal(t, fetched, requests.Load(), "second call must not fetch")
}

func TestEnsureSeeded_PartialFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int64
	srv := seedServer(t, &requests, "/deals.json")

	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())
	loader := NewLoader(adapter, srv.URL, zerolog.Nop())

	require.Error(t, loader.EnsureSeeded(ctx))

	// No partial-seed state: flag unset, nothing persisted.
	assert.False(t, storage.Read(ctx, adapter, storage.KeyInitialized, false))
	assert.Empty(t, storage.Read(ctx, adapter, storage.KeyDestinations, []models.Destination{}))
	assert.Empty(t, storage.Read(ctx, adapter, storage.KeyPackages, []models.Package{}))
}

func TestEnsureSeeded_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int64

	adapter := storage.NewAdapter(storage.NewMemoryStore(), zerolog.Nop())

	failing := seedServer(t, &requests, "/packages.json")
	require.Error(t, NewLoader(adapter, failing.URL, zerolog.Nop()).EnsureSeeded(ctx))

	healthy := seedServer(t, &requests, "")
	require.NoError(t, NewLoader(adapter, healthy.URL, zerolog.Nop()).EnsureSeeded(ctx))

	assert.True(t, storage.Read(ctx, adapter, storage.KeyInitialized, false))
	assert.Len(t, storage.Read(ctx, adapter, storage.KeyPackages, []models.Package{}), 1)
}
