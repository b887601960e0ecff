package storesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/domain/shared"
)

const (
	// DefaultCompareDays is the comparison window when none is requested
	DefaultCompareDays = 30
	// MaxCompareDays is the largest accepted comparison window
	MaxCompareDays = 365

	summaryMetricDays   = 2
	statusSampleSize    = 500
	recentOrdersShown   = 15
	summaryView         = "summary"
	defaultAnalyticsTTL = 5 * time.Minute
)

// ErrInvalidCompareDays is returned for a comparison window outside 1..365
var ErrInvalidCompareDays = shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("days must be between 1 and %d", MaxCompareDays))

var hundred = decimal.NewFromInt(100)

// AnalyticsService renders the store dashboards from persisted orders and metrics
type AnalyticsService struct {
	integrations integration.StoreIntegrationRepository
	orders       integration.StoreOrderRepository
	metrics      integration.DailyMetricRepository
	cache        integration.AnalyticsCache
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. cache may be nil.
func NewAnalyticsService(
	integrations integration.StoreIntegrationRepository,
	orders integration.StoreOrderRepository,
	metrics integration.DailyMetricRepository,
	cache integration.AnalyticsCache,
	ttl time.Duration,
	logger *zap.Logger,
) *AnalyticsService {
	if ttl <= 0 {
		ttl = defaultAnalyticsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		integrations: integrations,
		orders:       orders,
		metrics:      metrics,
		cache:        cache,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Summary returns the client's active integration, its two most recent metric
// days, a status breakdown of the latest orders, and the newest orders.
func (s *AnalyticsService) Summary(ctx context.Context, clientID uuid.UUID) (*StoreSummary, error) {
	var summary StoreSummary
	if s.cached(ctx, clientID, summaryView, &summary) {
		return &summary, nil
	}

	summary = StoreSummary{ClientID: clientID}

	si, err := s.integrations.FindActiveByClient(ctx, clientID)
	switch {
	case err == nil:
		summary.Integration = toIntegrationSummary(si)
	case errors.Is(err, integration.ErrIntegrationNotFound):
	default:
		return nil, err
	}

	latest, err := s.metrics.FindLatestByClient(ctx, clientID, summaryMetricDays)
	if err != nil {
		return nil, err
	}
	summary.LatestMetrics = toDailyMetricViews(latest)

	recent, err := s.orders.FindRecentByClient(ctx, clientID, statusSampleSize)
	if err != nil {
		return nil, err
	}
	summary.StatusBreakdown = statusBreakdown(recent)
	if len(recent) > recentOrdersShown {
		recent = recent[:recentOrdersShown]
	}
	summary.RecentOrders = toOrderViews(recent)

	s.store(ctx, clientID, summaryView, &summary)
	return &summary, nil
}

// Compare totals the last days days (today inclusive, UTC) against the
// equally long window before them. days of 0 means DefaultCompareDays.
func (s *AnalyticsService) Compare(ctx context.Context, clientID uuid.UUID, days int) (*StoreComparison, error) {
	if days == 0 {
		days = DefaultCompareDays
	}
	if days < 0 || days > MaxCompareDays {
		return nil, ErrInvalidCompareDays
	}

	view := fmt.Sprintf("compare:%d", days)
	var comparison StoreComparison
	if s.cached(ctx, clientID, view, &comparison) {
		return &comparison, nil
	}

	today := integration.BucketDate(s.now().UTC())
	currentFrom := today.AddDate(0, 0, -(days - 1))
	previousTo := currentFrom.AddDate(0, 0, -1)
	previousFrom := previousTo.AddDate(0, 0, -(days - 1))

	rows, err := s.metrics.FindByClientBetween(ctx, clientID, previousFrom, today)
	if err != nil {
		return nil, err
	}

	var current, previous []integration.DailyMetric
	for _, m := range rows {
		if m.Date.Before(currentFrom) {
			previous = append(previous, m)
		} else {
			current = append(current, m)
		}
	}

	comparison = StoreComparison{
		ClientID: clientID,
		Days:     days,
		Current:  totals(currentFrom, today, current),
		Previous: totals(previousFrom, previousTo, previous),
	}
	comparison.Change = PercentChanges{
		Revenue:       percentChange(comparison.Previous.Revenue, comparison.Current.Revenue),
		Orders:        percentChange(decimal.NewFromInt(int64(comparison.Previous.Orders)), decimal.NewFromInt(int64(comparison.Current.Orders))),
		Customers:     percentChange(decimal.NewFromInt(int64(comparison.Previous.Customers)), decimal.NewFromInt(int64(comparison.Current.Customers))),
		AvgOrderValue: percentChange(comparison.Previous.AvgOrderValue, comparison.Current.AvgOrderValue),
	}

	s.store(ctx, clientID, view, &comparison)
	return &comparison, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// totals sums a window. Customers is the sum of per-day distinct counts.
func totals(from, to time.Time, metrics []integration.DailyMetric) PeriodTotals {
	t := PeriodTotals{
		From:          from.Format(integration.DateLayout),
		To:            to.Format(integration.DateLayout),
		Revenue:       decimal.Zero,
		AvgOrderValue: decimal.Zero,
	}
	for _, m := range metrics {
		t.Revenue = t.Revenue.Add(m.Revenue)
		t.Orders += m.Orders
		t.Customers += m.Customers
	}
	t.Revenue = t.Revenue.Round(2)
	if t.Orders > 0 {
		t.AvgOrderValue = t.Revenue.Div(decimal.NewFromInt(int64(t.Orders))).Round(2)
	}
	return t
}

// percentChange is (current-previous)/previous in percent, 2dp. A zero
// previous yields 0 for a zero current and 100 otherwise.
func percentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}

func statusBreakdown(orders []integration.StoredOrder) []StatusCount {
	counts := make(map[string]int)
	for _, o := range orders {
		status := strings.ToLower(strings.TrimSpace(o.Status))
		if status == "" {
			status = "unknown"
		}
		counts[status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

func (s *AnalyticsService) cached(ctx context.Context, clientID uuid.UUID, view string, dst any) bool {
	if s.cache == nil {
		return false
	}
	payload, ok, err := s.cache.Get(ctx, clientID, view)
	if err != nil {
		s.logger.Warn("Analytics cache read failed",
			zap.String("client_id", clientID.String()),
			zap.String("view", view),
			zap.Error(err),
		)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.Warn("Discarding undecodable analytics cache entry",
			zap.String("client_id", clientID.String()),
			zap.String("view", view),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *AnalyticsService) store(ctx context.Context, clientID uuid.UUID, view string, v any) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, clientID, view, payload, s.ttl); err != nil {
		s.logger.Warn("Analytics cache write failed",
			zap.String("client_id", clientID.String()),
			zap.String("view", view),
			zap.Error(err),
		)
	}
}
