package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Types
// ---------------------------------------------------------------------------

// SyncLookback is the fixed window of order history pulled on every sync
const SyncLookback = 90 * 24 * time.Hour

// SyncResult is the user-visible summary of one integration sync
type SyncResult struct {
	// SyncedOrders is the number of orders fetched and upserted
	SyncedOrders int `json:"synced_orders"`
	// SyncedDays is the number of daily metric buckets upserted
	SyncedDays int `json:"synced_days"`
}

// BatchOutcome is the outcome of syncing one integration in batch mode.
// Exactly one of Result and Err is set.
type BatchOutcome struct {
	IntegrationID uuid.UUID
	Result        *SyncResult
	Err           error
}

// Succeeded returns true if the integration synced without error
func (o BatchOutcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// ---------------------------------------------------------------------------
// Repository Ports
// ---------------------------------------------------------------------------

// StoreIntegrationRepository reads integrations and records sync bookkeeping
type StoreIntegrationRepository interface {
	// FindByID loads an integration, returning ErrIntegrationNotFound if it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*StoreIntegration, error)

	// FindActive returns every active integration ordered by creation time
	FindActive(ctx context.Context) ([]StoreIntegration, error)

	// FindActiveByClient returns the client's most recently created active integration
	FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*StoreIntegration, error)

	// UpdateLastSyncedAt sets last_synced_at, returning ErrIntegrationNotFound
	// if the row disappeared
	UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

// StoreOrderRepository persists canonical orders
type StoreOrderRepository interface {
	// UpsertMany inserts or overwrites orders keyed by (integration_id, external_id)
	UpsertMany(ctx context.Context, si *StoreIntegration, orders []Order) error

	// FindRecentByClient returns up to limit orders, newest first
	FindRecentByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]StoredOrder, error)
}

// DailyMetricRepository persists daily aggregates
type DailyMetricRepository interface {
	// UpsertMany inserts or overwrites metrics keyed by (integration_id, date)
	UpsertMany(ctx context.Context, metrics []DailyMetric) error

	// FindByClientBetween returns metrics with from <= date <= to, ordered by date
	FindByClientBetween(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]DailyMetric, error)

	// FindLatestByClient returns the most recent limit metrics, newest first
	FindLatestByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]DailyMetric, error)
}

// SyncRepositories groups the repositories written during a sync so they can
// share one transaction
type SyncRepositories struct {
	Integrations StoreIntegrationRepository
	Orders       StoreOrderRepository
	Metrics      DailyMetricRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// If fn returns an error every write made through repos is rolled back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos SyncRepositories) error) error
}

// StoredOrder is a persisted order row as read back for dashboards
type StoredOrder struct {
	Order
	IntegrationID uuid.UUID
	ClientID      uuid.UUID
	Platform      Platform
	UpdatedAt     time.Time
}
