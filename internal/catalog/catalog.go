// Package catalog owns the destination/package/deal/testimonial
// collections and the append-only order history. All mutators replace
// whole collections in memory and write them through the persistence
// adapter before emitting a change event.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

const (
	featuredLimit = 6
	popularLimit  = 8
)

// ErrInvalidFormat is returned by ImportData for input that is not a
// valid export document. Nothing is written in that case.
var ErrInvalidFormat = errors.New("invalid data format")

// Seeder is the one-shot bootstrap consulted by Initialize.
type Seeder interface {
	EnsureSeeded(ctx context.Context) error
}

// Service is the catalog store. Mutators are serialized by an internal
// lock; accessors return copies, never the internal slices.
type Service struct {
	adapter *storage.Adapter
	seeder  Seeder
	bus     *events.Bus
	logger  zerolog.Logger

	mu           sync.RWMutex
	destinations []models.Destination
	packages     []models.Package
	deals        []models.Deal
	testimonials []models.Testimonial
	orders       []models.Order
	initialized  bool
}

// NewService creates the catalog store. A nil seeder means no seed
// source is configured; Initialize then only reloads persisted state.
func NewService(adapter *storage.Adapter, seeder Seeder, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		adapter: adapter,
		seeder:  seeder,
		bus:     bus,
		logger:  logger,
	}
}

// Initialize runs the seed loader, then reloads all five collections
// from the adapter. Safe to call repeatedly: subsequent calls re-read
// current persisted state. A seed failure is logged and tolerated; the
// store then serves whatever is already persisted, and the unset seed
// flag makes the next Initialize retry.
func (s *Service) Initialize(ctx context.Context) {
	if s.seeder != nil {
		if err := s.seeder.EnsureSeeded(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to initialize seed data")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.destinations = storage.Read(ctx, s.adapter, storage.KeyDestinations, []models.Destination{})
	s.packages = storage.Read(ctx, s.adapter, storage.KeyPackages, []models.Package{})
	s.deals = storage.Read(ctx, s.adapter, storage.KeyDeals, []models.Deal{})
	s.testimonials = storage.Read(ctx, s.adapter, storage.KeyTestimonials, []models.Testimonial{})
	s.orders = storage.Read(ctx, s.adapter, storage.KeyOrders, []models.Order{})
	s.initialized = true
}

// Initialized reports whether Initialize has completed at least once.
func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// --- Accessors ---

func (s *Service) Destinations() []models.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Destination(nil), s.destinations...)
}

func (s *Service) Packages() []models.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Package(nil), s.packages...)
}

func (s *Service) Deals() []models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Deal(nil), s.deals...)
}

func (s *Service) Testimonials() []models.Testimonial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Testimonial(nil), s.testimonials...)
}

func (s *Service) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

// DestinationByID looks a destination up by its id.
func (s *Service) DestinationByID(id string) (models.Destination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.destinations {
		if d.ID == id {
			return d, true
		}
	}
	return models.Destination{}, false
}

// DestinationBySlug looks a destination up by its unique slug.
func (s *Service) DestinationBySlug(slug string) (models.Destination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.destinations {
		if d.Slug == slug {
			return d, true
		}
	}
	return models.Destination{}, false
}

// PackageByID looks a package up by its id.
func (s *Service) PackageByID(id string) (models.Package, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.packages {
		if p.ID == id {
			return p, true
		}
	}
	return models.Package{}, false
}

// PackagesByDestination returns every package referencing the
// destination id.
func (s *Service) PackagesByDestination(destinationID string) []models.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Package
	for _, p := range s.packages {
		if p.DestinationID == destinationID {
			out = append(out, p)
		}
	}
	return out
}

// FeaturedDestinations returns destinations flagged popular, capped
// at six.
func (s *Service) FeaturedDestinations() []models.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Destination
	for _, d := range s.destinations {
		if d.Popular {
			out = append(out, d)
			if len(out) == featuredLimit {
				break
			}
		}
	}
	return out
}

// PopularDestinations returns destinations sorted by rating
// descending, capped at eight.
func (s *Service) PopularDestinations() []models.Destination {
	s.mu.RLock()
	sorted := append([]models.Destination(nil), s.destinations...)
	s.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	if len(sorted) > popularLimit {
		sorted = sorted[:popularLimit]
	}
	return sorted
}

// --- Destination mutators ---

// AddDestination appends a destination, assigning an id when absent.
func (s *Service) AddDestination(ctx context.Context, d models.Destination) models.Destination {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.destinations = append(append([]models.Destination(nil), s.destinations...), d)
	s.persistDestinations(ctx)
	snapshot := append([]models.Destination(nil), s.destinations...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDestinations, snapshot)
	return d
}

// UpdateDestination replaces the destination with the same id.
// Returns false when no destination matches.
func (s *Service) UpdateDestination(ctx context.Context, d models.Destination) bool {
	s.mu.Lock()
	updated := make([]models.Destination, len(s.destinations))
	found := false
	for i, existing := range s.destinations {
		if existing.ID == d.ID {
			updated[i] = d
			found = true
		} else {
			updated[i] = existing
		}
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.destinations = updated
	s.persistDestinations(ctx)
	snapshot := append([]models.Destination(nil), s.destinations...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDestinations, snapshot)
	return true
}

// DeleteDestination removes the destination and, in the same logical
// write, every package referencing it.
func (s *Service) DeleteDestination(ctx context.Context, id string) {
	s.mu.Lock()
	destinations := make([]models.Destination, 0, len(s.destinations))
	for _, d := range s.destinations {
		if d.ID != id {
			destinations = append(destinations, d)
		}
	}
	packages := make([]models.Package, 0, len(s.packages))
	for _, p := range s.packages {
		if p.DestinationID != id {
			packages = append(packages, p)
		}
	}
	s.destinations = destinations
	s.packages = packages
	s.persistDestinations(ctx)
	s.persistPackages(ctx)
	destSnapshot := append([]models.Destination(nil), s.destinations...)
	pkgSnapshot := append([]models.Package(nil), s.packages...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDestinations, destSnapshot)
	s.bus.Publish(events.TopicPackages, pkgSnapshot)
}

// --- Package mutators ---

// AddPackage appends a package, assigning an id when absent. The
// destination id is not validated; a dangling reference is tolerated
// and simply never matched by destination lookups.
func (s *Service) AddPackage(ctx context.Context, p models.Package) models.Package {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.packages = append(append([]models.Package(nil), s.packages...), p)
	s.persistPackages(ctx)
	snapshot := append([]models.Package(nil), s.packages...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicPackages, snapshot)
	return p
}

// UpdatePackage replaces the package with the same id.
func (s *Service) UpdatePackage(ctx context.Context, p models.Package) bool {
	s.mu.Lock()
	updated := make([]models.Package, len(s.packages))
	found := false
	for i, existing := range s.packages {
		if existing.ID == p.ID {
			updated[i] = p
			found = true
		} else {
			updated[i] = existing
		}
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.packages = updated
	s.persistPackages(ctx)
	snapshot := append([]models.Package(nil), s.packages...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicPackages, snapshot)
	return true
}

// DeletePackage removes the package with the given id.
func (s *Service) DeletePackage(ctx context.Context, id string) {
	s.mu.Lock()
	packages := make([]models.Package, 0, len(s.packages))
	for _, p := range s.packages {
		if p.ID != id {
			packages = append(packages, p)
		}
	}
	s.packages = packages
	s.persistPackages(ctx)
	snapshot := append([]models.Package(nil), s.packages...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicPackages, snapshot)
}

// --- Deal mutators ---

// AddDeal appends a deal, assigning an id when absent.
func (s *Service) AddDeal(ctx context.Context, d models.Deal) models.Deal {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.deals = append(append([]models.Deal(nil), s.deals...), d)
	s.persistDeals(ctx)
	snapshot := append([]models.Deal(nil), s.deals...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDeals, snapshot)
	return d
}

// UpdateDeal replaces the deal with the same id.
func (s *Service) UpdateDeal(ctx context.Context, d models.Deal) bool {
	s.mu.Lock()
	updated := make([]models.Deal, len(s.deals))
	found := false
	for i, existing := range s.deals {
		if existing.ID == d.ID {
			updated[i] = d
			found = true
		} else {
			updated[i] = existing
		}
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.deals = updated
	s.persistDeals(ctx)
	snapshot := append([]models.Deal(nil), s.deals...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDeals, snapshot)
	return true
}

// DeleteDeal removes the deal with the given id.
func (s *Service) DeleteDeal(ctx context.Context, id string) {
	s.mu.Lock()
	deals := make([]models.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if d.ID != id {
			deals = append(deals, d)
		}
	}
	s.deals = deals
	s.persistDeals(ctx)
	snapshot := append([]models.Deal(nil), s.deals...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicDeals, snapshot)
}

// --- Orders ---

// CreateOrder appends an order and persists the append. It records
// whatever it is given: no stock or payment validation happens here.
// Orders are never mutated or deleted afterwards.
func (s *Service) CreateOrder(ctx context.Context, order models.Order) models.Order {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.orders = append(append([]models.Order(nil), s.orders...), order)
	s.persistOrders(ctx)
	snapshot := append([]models.Order(nil), s.orders...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicOrders, snapshot)
	return order
}

// --- Export / import / reset ---

type exportDocument struct {
	Destinations []models.Destination `json:"destinations"`
	Packages     []models.Package     `json:"packages"`
	Deals        []models.Deal        `json:"deals"`
	Testimonials []models.Testimonial `json:"testimonials"`
	Orders       []models.Order       `json:"orders"`
	ExportedAt   time.Time            `json:"exportedAt"`
}

type importDocument struct {
	Destinations *[]models.Destination `json:"destinations"`
	Packages     *[]models.Package     `json:"packages"`
	Deals        *[]models.Deal        `json:"deals"`
	Testimonials *[]models.Testimonial `json:"testimonials"`
	Orders       *[]models.Order       `json:"orders"`
}

// ExportData produces a single JSON document holding all five
// collections plus an export timestamp.
func (s *Service) ExportData() ([]byte, error) {
	s.mu.RLock()
	doc := exportDocument{
		Destinations: append([]models.Destination(nil), s.destinations...),
		Packages:     append([]models.Package(nil), s.packages...),
		Deals:        append([]models.Deal(nil), s.deals...),
		Testimonials: append([]models.Testimonial(nil), s.testimonials...),
		Orders:       append([]models.Order(nil), s.orders...),
		ExportedAt:   time.Now().UTC(),
	}
	s.mu.RUnlock()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return raw, nil
}

// ImportData parses an export document and overwrites the collections
// present in it; absent collections are left untouched. Malformed
// input fails with ErrInvalidFormat and writes nothing.
func (s *Service) ImportData(ctx context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}

	var doc importDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	s.mu.Lock()
	if doc.Destinations != nil {
		s.destinations = *doc.Destinations
		s.persistDestinations(ctx)
	}
	if doc.Packages != nil {
		s.packages = *doc.Packages
		s.persistPackages(ctx)
	}
	if doc.Deals != nil {
		s.deals = *doc.Deals
		s.persistDeals(ctx)
	}
	if doc.Testimonials != nil {
		s.testimonials = *doc.Testimonials
		s.persistTestimonials(ctx)
	}
	if doc.Orders != nil {
		s.orders = *doc.Orders
		s.persistOrders(ctx)
	}
	s.mu.Unlock()

	s.logger.Info().Msg("data import applied")
	return nil
}

// ResetAll wipes the entire durable store and empties the in-memory
// mirrors. The seed flag goes with everything else, so the next
// Initialize re-seeds from scratch.
func (s *Service) ResetAll(ctx context.Context) {
	s.adapter.Clear(ctx)

	s.mu.Lock()
	s.destinations = nil
	s.packages = nil
	s.deals = nil
	s.testimonials = nil
	s.orders = nil
	s.initialized = false
	s.mu.Unlock()

	s.logger.Info().Msg("durable store wiped")
}

// --- persistence helpers, caller holds s.mu ---

func (s *Service) persistDestinations(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyDestinations, s.destinations)
}

func (s *Service) persistPackages(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyPackages, s.packages)
}

func (s *Service) persistDeals(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyDeals, s.deals)
}

func (s *Service) persistTestimonials(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyTestimonials, s.testimonials)
}

func (s *Service) persistOrders(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyOrders, s.orders)
}
