// Package auth holds the single-role admin session. The credential
// check is a placeholder equality test, not a security boundary.
package auth

import (
	"context"
	"sync"

	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/models"
	"github.com/atlas-voyages/travelstore/internal/storage"
)

// Service is the auth store: Anonymous until Login succeeds or
// CheckAuth restores a persisted session.
type Service struct {
	adapter       *storage.Adapter
	bus           *events.Bus
	adminEmail    string
	adminPassword string

	mu   sync.RWMutex
	user *models.User
}

func NewService(adapter *storage.Adapter, bus *events.Bus, adminEmail, adminPassword string) *Service {
	return &Service{
		adapter:       adapter,
		bus:           bus,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// Login succeeds iff both values match the configured credential pair.
// On success the session is set and persisted; on failure nothing
// changes. Never returns an error.
func (s *Service) Login(ctx context.Context, email, password string) bool {
	if email != s.adminEmail || password != s.adminPassword {
		return false
	}

	user := &models.User{Email: email, Role: models.RoleAdmin}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	storage.Write(ctx, s.adapter, storage.KeyAuth, user)
	s.bus.Publish(events.TopicAuth, *user)
	return true
}

// Logout clears the in-memory session and the persisted one.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	s.adapter.Remove(ctx, storage.KeyAuth)
	s.bus.Publish(events.TopicAuth, nil)
}

// CheckAuth restores the in-memory session from the persisted one, if
// any. Called once at startup; a missing session leaves the store
// anonymous.
func (s *Service) CheckAuth(ctx context.Context) {
	saved := storage.Read(ctx, s.adapter, storage.KeyAuth, (*models.User)(nil))
	if saved == nil {
		return
	}

	s.mu.Lock()
	s.user = saved
	s.mu.Unlock()

	s.bus.Publish(events.TopicAuth, *saved)
}

// CurrentUser returns the session user, if authenticated.
func (s *Service) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a session exists.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}
