package storefront

import (
	"context"
	"sync"

	logx "github.com/techstore-demo/server/pkg/logger"
)

// Manager hands out one Shopper per profile id, restoring it from storage
// on first use.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	shoppers map[string]*Shopper
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps.withDefaults(),
		shoppers: make(map[string]*Shopper),
	}
}

// Shopper returns the cached shopper for profileID or restores it.
func (m *Manager) Shopper(ctx context.Context, profileID string) (*Shopper, error) {
	m.mu.Lock()
	s, ok := m.shoppers[profileID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	restored, err := restoreShopper(ctx, profileID, m.deps)
	if err != nil {
		logx.Error().Err(err).Str("profile", profileID).Msg("failed to restore shopper")
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have restored the same profile meanwhile
	if s, ok := m.shoppers[profileID]; ok {
		return s, nil
	}
	m.shoppers[profileID] = restored
	return restored, nil
}

// Len is the number of shoppers held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shoppers)
}

// Shutdown waits for every processing checkout to settle so confirmed carts
// are persisted before the process exits.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	shoppers := make([]*Shopper, 0, len(m.shoppers))
	for _, s := range m.shoppers {
		shoppers = append(shoppers, s)
	}
	m.mu.Unlock()

	for _, s := range shoppers {
		if err := s.wait(ctx); err != nil {
			logx.Warn().Err(err).Str("profile", s.id).Msg("checkout still processing at shutdown")
			return err
		}
	}
	return nil
}
