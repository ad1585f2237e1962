// Package seed bootstraps the durable store from the remote seed
// source exactly once.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

// Loader fetches the four seed collections and writes them through the
// persistence adapter, guarded by the initialized flag.
type Loader struct {
	adapter *storage.Adapter
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

func NewLoader(adapter *storage.Adapter, baseURL string, logger zerolog.Logger) *Loader {
	return &Loader{
		adapter: adapter,
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		logger:  logger,
	}
}

// EnsureSeeded loads the seed collections unless the initialized flag
// is already set. All four fetches must succeed before anything is
// written; the flag is written last, so a failure or crash mid-seed
// leaves the flag unset and the next call retries from scratch.
func (l *Loader) EnsureSeeded(ctx context.Context) error {
	if storage.Read(ctx, l.adapter, storage.KeyInitialized, false) {
		l.logger.Debug().Msg("seed data already initialized, skipping")
		return nil
	}

	var (
		destinations []models.Destination
		packages     []models.Package
		deals        []models.Deal
		testimonials []models.Testimonial
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.fetch(gctx, "destinations.json", &destinations) })
	g.Go(func() error { return l.fetch(gctx, "packages.json", &packages) })
	g.Go(func() error { return l.fetch(gctx, "deals.json", &deals) })
	g.Go(func() error { return l.fetch(gctx, "testimonials.json", &testimonials) })

	if err := g.Wait(); err != nil {
		l.logger.Error().Err(err).Msg("failed to load seed data")
		return fmt.Errorf("load seed data: %w", err)
	}

	storage.Write(ctx, l.adapter, storage.KeyDestinations, destinations)
	storage.Write(ctx, l.adapter, storage.KeyPackages, packages)
	storage.Write(ctx, l.adapter, storage.KeyDeals, deals)
	storage.Write(ctx, l.adapter, storage.KeyTestimonials, testimonials)
	storage.Write(ctx, l.adapter, storage.KeyInitialized, true)

	l.logger.Info().
		Int("destinations", len(destinations)).
		Int("packages", len(packages)).
		Int("deals", len(deals)).
		Int("testimonials", len(testimonials)).
		Msg("seed data loaded")
	return nil
}

func (l *Loader) fetch(ctx context.Context, name string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+name, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", name, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
