// Package storesync orchestrates pulling orders from storefront platforms,
// persisting them, and deriving daily metrics for the client dashboards.
package storesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultMaxConcurrentSyncs bounds SyncAll fan-out when unset
	DefaultMaxConcurrentSyncs = 4
	// DefaultSyncTimeout bounds one integration sync when unset
	DefaultSyncTimeout = 5 * time.Minute
)

// Sync outcome labels used for metrics and logs
const (
	OutcomeSuccess               = telemetry.OutcomeSuccess
	OutcomeNotFound              = "not_found"
	OutcomeUnsupportedPlatform   = "unsupported_platform"
	OutcomeIncompleteCredentials = "incomplete_credentials"
	OutcomeUpstreamError         = "upstream_error"
	OutcomeError                 = "error"
)

// SyncServiceConfig tunes the orchestrator
type SyncServiceConfig struct {
	MaxConcurrent int
	SyncTimeout   time.Duration
}

// SyncService syncs store integrations one at a time or as a batch
type SyncService struct {
	integrations integration.StoreIntegrationRepository
	sources      integration.OrderSourceRegistry
	transactor   integration.Transactor
	cache        integration.AnalyticsCache
	metrics      *telemetry.SyncMetrics
	logger       *zap.Logger
	config       SyncServiceConfig
	now          func() time.Time
}

// SyncServiceOption configures optional collaborators of SyncService
type SyncServiceOption func(*SyncService)

// WithAnalyticsCache invalidates the client's cached dashboard views after each successful sync
func WithAnalyticsCache(cache integration.AnalyticsCache) SyncServiceOption {
	return func(s *SyncService) {
		s.cache = cache
	}
}

// WithSyncMetrics records sync outcomes on m
func WithSyncMetrics(m *telemetry.SyncMetrics) SyncServiceOption {
	return func(s *SyncService) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) SyncServiceOption {
	return func(s *SyncService) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, used for the lookback window and last_synced_at
func WithClock(now func() time.Time) SyncServiceOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(
	integrations integration.StoreIntegrationRepository,
	sources integration.OrderSourceRegistry,
	transactor integration.Transactor,
	config SyncServiceConfig,
	opts ...SyncServiceOption,
) *SyncService {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrentSyncs
	}
	if config.SyncTimeout <= 0 {
		config.SyncTimeout = DefaultSyncTimeout
	}

	s := &SyncService{
		integrations: integrations,
		sources:      sources,
		transactor:   transactor,
		logger:       zap.NewNop(),
		config:       config,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Single integration
// ---------------------------------------------------------------------------

// SyncOne pulls the last 90 days of orders for one integration, upserts them
// and their daily metrics, and stamps last_synced_at. Nothing is persisted
// unless the platform fetch fully succeeds.
func (s *SyncService) SyncOne(ctx context.Context, integrationID uuid.UUID) (*integration.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SyncTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "storesync.sync_one",
		attribute.String("integration_id", integrationID.String()),
	)

	start := time.Now()
	si, result, err := s.syncOne(ctx, integrationID)
	elapsed := time.Since(start)
	telemetry.EndSpan(span, err)

	platform := "unknown"
	fields := []zap.Field{
		zap.String("integration_id", integrationID.String()),
		zap.Duration("duration", elapsed),
	}
	if si != nil {
		platform = si.Platform.Canonical().String()
		fields = append(fields,
			zap.String("client_id", si.ClientID.String()),
			zap.String("platform", platform),
		)
	}

	outcome := classifyOutcome(err)
	if err != nil {
		s.metrics.RecordSync(ctx, platform, outcome, elapsed, 0, 0)
		s.logger.Warn("Store sync failed", append(fields, zap.String("outcome", outcome), zap.Error(err))...)
		return nil, err
	}

	s.metrics.RecordSync(ctx, platform, outcome, elapsed, result.SyncedOrders, result.SyncedDays)
	s.logger.Info("Store sync completed", append(fields,
		zap.Int("synced_orders", result.SyncedOrders),
		zap.Int("synced_days", result.SyncedDays),
	)...)

	if s.cache != nil {
		if cerr := s.cache.Invalidate(ctx, si.ClientID); cerr != nil {
			s.logger.Warn("Failed to invalidate analytics cache", append(fields, zap.Error(cerr))...)
		}
	}
	return result, nil
}

func (s *SyncService) syncOne(ctx context.Context, integrationID uuid.UUID) (*integration.StoreIntegration, *integration.SyncResult, error) {
	si, err := s.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	since := now.Add(-integration.SyncLookback)

	source, err := s.sources.GetSource(si.Platform)
	if err != nil {
		return si, nil, err
	}
	if err := si.ValidateCredentials(); err != nil {
		return si, nil, err
	}

	orders, err := source.FetchOrders(ctx, si, since)
	if err != nil {
		return si, nil, fmt.Errorf("%w: %w", integration.ErrUpstream, err)
	}

	metrics := integration.BuildDailyMetrics(si.ID, si.ClientID, orders)

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, repos integration.SyncRepositories) error {
		if len(orders) > 0 {
			if err := repos.Orders.UpsertMany(ctx, si, orders); err != nil {
				return fmt.Errorf("upsert orders: %w", err)
			}
		}
		if len(metrics) > 0 {
			if err := repos.Metrics.UpsertMany(ctx, metrics); err != nil {
				return fmt.Errorf("upsert daily metrics: %w", err)
			}
		}
		return repos.Integrations.UpdateLastSyncedAt(ctx, si.ID, now)
	})
	if err != nil {
		return si, nil, err
	}

	si.MarkSynced(now)
	return si, &integration.SyncResult{
		SyncedOrders: len(orders),
		SyncedDays:   len(metrics),
	}, nil
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, integration.ErrIntegrationNotFound):
		return OutcomeNotFound
	case errors.Is(err, integration.ErrUnsupportedPlatform):
		return OutcomeUnsupportedPlatform
	case errors.Is(err, integration.ErrIncompleteCredentials):
		return OutcomeIncompleteCredentials
	case errors.Is(err, integration.ErrUpstream):
		return OutcomeUpstreamError
	default:
		return OutcomeError
	}
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// SyncAll syncs every active integration with bounded concurrency. A failing
// integration never stops its peers; the only aggregate error is failing to
// list integrations. Outcomes follow the listing order.
func (s *SyncService) SyncAll(ctx context.Context) ([]integration.BatchOutcome, error) {
	active, err := s.integrations.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active integrations: %w", err)
	}

	outcomes := make([]integration.BatchOutcome, len(active))

	var g errgroup.Group
	g.SetLimit(s.config.MaxConcurrent)
	for i := range active {
		id := active[i].ID
		g.Go(func() error {
			result, err := s.SyncOne(ctx, id)
			outcomes[i] = integration.BatchOutcome{IntegrationID: id, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed++
		}
	}
	s.logger.Info("Store batch sync finished",
		zap.Int("integrations", len(outcomes)),
		zap.Int("succeeded", len(outcomes)-failed),
		zap.Int("failed", failed),
	)
	return outcomes, nil
}
