package storesync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storesync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Summary DTOs
// ---------------------------------------------------------------------------

// StoreSummary is the client dashboard view of a connected store
type StoreSummary struct {
	ClientID uuid.UUID `json:"client_id"`
	// Integration is nil when the client has no active integration
	Integration     *IntegrationSummary `json:"integration"`
	LatestMetrics   []DailyMetricView   `json:"latest_metrics"`
	StatusBreakdown []StatusCount       `json:"status_breakdown"`
	RecentOrders    []OrderView         `json:"recent_orders"`
}

// IntegrationSummary describes the client's active integration
type IntegrationSummary struct {
	ID           uuid.UUID  `json:"id"`
	Platform     string     `json:"platform"`
	PlatformName string     `json:"platform_name"`
	StoreURL     string     `json:"store_url,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// DailyMetricView is one day of store metrics
type DailyMetricView struct {
	Date          string          `json:"date"`
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        int             `json:"orders"`
	Customers     int             `json:"customers"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	Currency      string          `json:"currency"`
}

// StatusCount is the number of recent orders carrying one platform status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// OrderView is a stored order as shown in the recent orders table
type OrderView struct {
	ExternalID    string          `json:"external_id"`
	Platform      string          `json:"platform"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	OrderedAt     *time.Time      `json:"ordered_at"`
}

// ---------------------------------------------------------------------------
// Comparison DTOs
// ---------------------------------------------------------------------------

// PeriodTotals sums store metrics over an inclusive date range
type PeriodTotals struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        int             `json:"orders"`
	Customers     int             `json:"customers"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// PercentChanges holds the current-vs-previous change of each total, in percent
type PercentChanges struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        decimal.Decimal `json:"orders"`
	Customers     decimal.Decimal `json:"customers"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// StoreComparison compares the last Days days with the Days before them
type StoreComparison struct {
	ClientID uuid.UUID      `json:"client_id"`
	Days     int            `json:"days"`
	Current  PeriodTotals   `json:"current"`
	Previous PeriodTotals   `json:"previous"`
	Change   PercentChanges `json:"change"`
}

// ---------------------------------------------------------------------------
// Mappers
// ---------------------------------------------------------------------------

func toIntegrationSummary(si *integration.StoreIntegration) *IntegrationSummary {
	return &IntegrationSummary{
		ID:           si.ID,
		Platform:     si.Platform.Canonical().String(),
		PlatformName: si.Platform.DisplayName(),
		StoreURL:     si.BaseURL(),
		LastSyncedAt: si.LastSyncedAt,
	}
}

func toDailyMetricViews(metrics []integration.DailyMetric) []DailyMetricView {
	views := make([]DailyMetricView, 0, len(metrics))
	for _, m := range metrics {
		views = append(views, DailyMetricView{
			Date:          m.DateKey(),
			Revenue:       m.Revenue,
			Orders:        m.Orders,
			Customers:     m.Customers,
			AvgOrderValue: m.AvgOrderValue,
			Currency:      m.Currency,
		})
	}
	return views
}

func toOrderViews(orders []integration.StoredOrder) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{
			ExternalID:    o.ExternalID,
			Platform:      o.Platform.String(),
			Amount:        o.Amount,
			Currency:      o.Currency,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			Status:        o.Status,
			OrderedAt:     o.OrderedAt,
		})
	}
	return views
}
