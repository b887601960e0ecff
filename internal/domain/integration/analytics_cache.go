package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalyticsCache stores rendered dashboard views per client. A sync of any of
// the client's integrations invalidates every view of that client.
type AnalyticsCache interface {
	// Get returns the cached payload for view, and false on a miss
	Get(ctx context.Context, clientID uuid.UUID, view string) ([]byte, bool, error)

	// Set stores payload for view until ttl elapses
	Set(ctx context.Context, clientID uuid.UUID, view string, payload []byte, ttl time.Duration) error

	// Invalidate drops every cached view of the client
	Invalidate(ctx context.Context, clientID uuid.UUID) error
}
