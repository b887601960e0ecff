package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storesync/backend/internal/domain/integration"
)

type cachedView struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryAnalyticsCache implements AnalyticsCache with a process-local map.
// Suitable for single-instance deployments and tests.
type InMemoryAnalyticsCache struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[string]cachedView
	now     func() time.Time
}

// NewInMemoryAnalyticsCache creates an empty in-memory cache
func NewInMemoryAnalyticsCache() *InMemoryAnalyticsCache {
	return &InMemoryAnalyticsCache{
		clients: make(map[uuid.UUID]map[string]cachedView),
		now:     time.Now,
	}
}

// Get returns a copy of the cached payload
func (c *InMemoryAnalyticsCache) Get(_ context.Context, clientID uuid.UUID, view string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.clients[clientID][view]
	if !ok || !c.now().Before(v.expiresAt) {
		return nil, false, nil
	}
	return append([]byte(nil), v.payload...), true, nil
}

// Set stores a copy of payload. A non-positive ttl is a no-op.
func (c *InMemoryAnalyticsCache) Set(_ context.Context, clientID uuid.UUID, view string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	views, ok := c.clients[clientID]
	if !ok {
		views = make(map[string]cachedView)
		c.clients[clientID] = views
	}
	views[view] = cachedView{
		payload:   append([]byte(nil), payload...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Invalidate drops every view of the client
func (c *InMemoryAnalyticsCache) Invalidate(_ context.Context, clientID uuid.UUID) error {
	c.mu.Lock()
	delete(c.clients, clientID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of clients with cached views
func (c *InMemoryAnalyticsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

var _ integration.AnalyticsCache = (*InMemoryAnalyticsCache)(nil)
