// Package cart holds the quantity-keyed package selection and its
// derived totals.
package cart

import (
	"context"
	"sync"

	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

// DefaultMaxQuantity caps a single line's quantity unless the service
// is configured otherwise.
const DefaultMaxQuantity = 10

// PackageLookup resolves live package data for cart joins.
type PackageLookup interface {
	PackageByID(id string) (models.Package, bool)
}

// Line is the denormalized view of one cart entry joined with its live
// package. A deleted package leaves Package nil and Total zero; a
// dangling reference is not an error.
type Line struct {
	models.CartItem
	Package *models.Package `json:"package,omitempty"`
	Total   float64         `json:"total"`
}

// Service is the cart store. Quantities are always clamped to
// [1, max]; one entry exists per distinct package id.
type Service struct {
	adapter *storage.Adapter
	catalog PackageLookup
	bus     *events.Bus
	max     int

	mu    sync.RWMutex
	items []models.CartItem
}

// NewService restores any persisted cart and returns the store.
func NewService(ctx context.Context, adapter *storage.Adapter, catalog PackageLookup, bus *events.Bus, maxQuantity int) *Service {
	if maxQuantity <= 0 {
		maxQuantity = DefaultMaxQuantity
	}
	return &Service{
		adapter: adapter,
		catalog: catalog,
		bus:     bus,
		max:     maxQuantity,
		items:   storage.Read(ctx, adapter, storage.KeyCart, []models.CartItem{}),
	}
}

// AddItem inserts a new entry or increments an existing one, clamping
// the resulting quantity to the configured maximum. A quantity below
// one counts as one. The package id is not validated against the
// catalog; a dangling id simply joins to a zero-valued line.
func (s *Service) AddItem(ctx context.Context, packageID string, qty int) {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	items := append([]models.CartItem(nil), s.items...)
	found := false
	for i, item := range items {
		if item.PackageID == packageID {
			items[i].Qty = min(item.Qty+qty, s.max)
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{PackageID: packageID, Qty: min(qty, s.max)})
	}
	s.items = items
	s.persist(ctx)
	snapshot := append([]models.CartItem(nil), s.items...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicCart, snapshot)
}

// RemoveItem deletes the entry for the package id, no-op if absent.
func (s *Service) RemoveItem(ctx context.Context, packageID string) {
	s.mu.Lock()
	items := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		if item.PackageID != packageID {
			items = append(items, item)
		}
	}
	s.items = items
	s.persist(ctx)
	snapshot := append([]models.CartItem(nil), s.items...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicCart, snapshot)
}

// UpdateQuantity sets an entry's quantity, clamped to [1, max]. A
// quantity of zero or less removes the entry instead.
func (s *Service) UpdateQuantity(ctx context.Context, packageID string, qty int) {
	if qty <= 0 {
		s.RemoveItem(ctx, packageID)
		return
	}
	if qty > s.max {
		qty = s.max
	}

	s.mu.Lock()
	items := append([]models.CartItem(nil), s.items...)
	for i, item := range items {
		if item.PackageID == packageID {
			items[i].Qty = qty
		}
	}
	s.items = items
	s.persist(ctx)
	snapshot := append([]models.CartItem(nil), s.items...)
	s.mu.Unlock()

	s.bus.Publish(events.TopicCart, snapshot)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.persist(ctx)
	s.mu.Unlock()

	s.bus.Publish(events.TopicCart, []models.CartItem{})
}

// Items returns the denormalized cart view: each entry joined with its
// live package and a computed line total. Entries whose package no
// longer exists contribute a nil package and a zero total.
func (s *Service) Items() []Line {
	s.mu.RLock()
	items := append([]models.CartItem(nil), s.items...)
	s.mu.RUnlock()

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		line := Line{CartItem: item}
		if pkg, ok := s.catalog.PackageByID(item.PackageID); ok {
			line.Package = &pkg
			line.Total = pkg.Price * float64(item.Qty)
		}
		lines = append(lines, line)
	}
	return lines
}

// Total sums price times quantity over all entries; a missing package
// contributes zero.
func (s *Service) Total() float64 {
	s.mu.RLock()
	items := append([]models.CartItem(nil), s.items...)
	s.mu.RUnlock()

	var total float64
	for _, item := range items {
		if pkg, ok := s.catalog.PackageByID(item.PackageID); ok {
			total += pkg.Price * float64(item.Qty)
		}
	}
	return total
}

// ItemsCount sums the quantities, not the number of entries.
func (s *Service) ItemsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		count += item.Qty
	}
	return count
}

// persist writes the raw entries; caller holds s.mu.
func (s *Service) persist(ctx context.Context) {
	storage.Write(ctx, s.adapter, storage.KeyCart, s.items)
}
