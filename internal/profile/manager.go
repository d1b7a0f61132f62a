package profile

import (
	"fmt"
	"sync"
	"time"
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	GetProfile(userID string) (Profile, bool, error)
	SaveProfile(p Profile) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	profile  Profile
	cachedAt time.Time
}

// Manager provides cached access to per-user profiles stored in SQLite.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// Get returns the profile for the given user, from cache when fresh.
// A user with no stored profile yields a zero-value Profile carrying only
// the user id; the agent renders missing fields as placeholders.
func (m *Manager) Get(userID string) (Profile, error) {
	m.mu.RLock()
	if e, ok := m.cache[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		m.mu.RUnlock()
		return e.profile, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cache[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return e.profile, nil
	}

	p, found, err := m.store.GetProfile(userID)
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile for %s: %w", userID, err)
	}
	if !found {
		p = Profile{UserID: userID}
	}

	m.cache[userID] = cacheEntry{profile: p, cachedAt: m.clock.Now()}
	return p, nil
}

// Update persists the profile and invalidates the user's cache entry.
func (m *Manager) Update(p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveProfile(p); err != nil {
		return fmt.Errorf("saving profile for %s: %w", p.UserID, err)
	}

	delete(m.cache, p.UserID)
	return nil
}

// Summary returns a compact string representation of the profile suitable
// for injection into a system prompt.
func (m *Manager) Summary(userID string) (string, error) {
	p, err := m.Get(userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Name: %s | Age: %s | Weight: %s | Height: %s | Goal: %s | Activity: %s | Diet: %s | Preferences: %s",
		p.NameLabel(), p.AgeLabel(), p.WeightLabel(), p.HeightLabel(),
		p.GoalLabel(), p.ActivityLabel(), p.DietLabel(), p.PreferencesLabel(),
	), nil
}
