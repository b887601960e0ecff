package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storesync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// StoreIntegrationModel
// ---------------------------------------------------------------------------

// StoreIntegrationModel is the persistence model for a client's storefront connection
type StoreIntegrationModel struct {
	BaseModel
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_store_integrations_client"`
	Platform     string     `gorm:"type:varchar(32);not null"`
	StoreURL     string     `gorm:"type:varchar(500)"`
	APIKey       string     `gorm:"column:api_key;type:varchar(255)"`
	APISecret    string     `gorm:"column:api_secret;type:varchar(255)"`
	AccessToken  string     `gorm:"type:varchar(500)"`
	StoreHash    string     `gorm:"type:varchar(100)"`
	IsActive     bool       `gorm:"not null;index:idx_store_integrations_active"`
	LastSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (StoreIntegrationModel) TableName() string {
	return "store_integrations"
}

// ToDomain converts the model to a domain entity
func (m *StoreIntegrationModel) ToDomain() *integration.StoreIntegration {
	return &integration.StoreIntegration{
		ID:           m.ID,
		ClientID:     m.ClientID,
		Platform:     integration.Platform(m.Platform),
		StoreURL:     m.StoreURL,
		APIKey:       m.APIKey,
		APISecret:    m.APISecret,
		AccessToken:  m.AccessToken,
		StoreHash:    m.StoreHash,
		IsActive:     m.IsActive,
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain entity
func (m *StoreIntegrationModel) FromDomain(si *integration.StoreIntegration) {
	m.ID = si.ID
	m.ClientID = si.ClientID
	m.Platform = string(si.Platform)
	m.StoreURL = si.StoreURL
	m.APIKey = si.APIKey
	m.APISecret = si.APISecret
	m.AccessToken = si.AccessToken
	m.StoreHash = si.StoreHash
	m.IsActive = si.IsActive
	m.LastSyncedAt = si.LastSyncedAt
	m.CreatedAt = si.CreatedAt
	m.UpdatedAt = si.UpdatedAt
}

// StoreIntegrationModelFromDomain creates a model from a domain entity
func StoreIntegrationModelFromDomain(si *integration.StoreIntegration) *StoreIntegrationModel {
	m := &StoreIntegrationModel{}
	m.FromDomain(si)
	return m
}

// ---------------------------------------------------------------------------
// StoreOrderModel
// ---------------------------------------------------------------------------

// StoreOrderModel is the persistence model for a canonical order.
// (integration_id, external_id) is unique.
type StoreOrderModel struct {
	BaseModel
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_store_orders_client"`
	IntegrationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_store_orders_integration_external,priority:1"`
	Platform      string          `gorm:"type:varchar(32);not null"`
	ExternalID    string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_store_orders_integration_external,priority:2"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency      string          `gorm:"type:varchar(10)"`
	CustomerName  string          `gorm:"type:varchar(255)"`
	CustomerEmail string          `gorm:"type:varchar(255)"`
	Status        string          `gorm:"type:varchar(50)"`
	OrderedAt     *time.Time      `gorm:"index:idx_store_orders_ordered_at"`
}

// TableName returns the table name for GORM
func (StoreOrderModel) TableName() string {
	return "store_orders"
}

// StoreOrderModelFromDomain creates a model for an order fetched by integration si
func StoreOrderModelFromDomain(si *integration.StoreIntegration, o *integration.Order) *StoreOrderModel {
	m := &StoreOrderModel{
		ClientID:      si.ClientID,
		IntegrationID: si.ID,
		Platform:      string(si.Platform),
		ExternalID:    o.ExternalID,
		Amount:        o.Amount,
		Currency:      o.Currency,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		OrderedAt:     o.OrderedAt,
	}
	m.EnsureID()
	return m
}

// ToDomain converts the model to a stored order
func (m *StoreOrderModel) ToDomain() integration.StoredOrder {
	return integration.StoredOrder{
		Order: integration.Order{
			ExternalID:    m.ExternalID,
			Amount:        m.Amount,
			Currency:      m.Currency,
			CustomerName:  m.CustomerName,
			CustomerEmail: m.CustomerEmail,
			Status:        m.Status,
			OrderedAt:     m.OrderedAt,
		},
		IntegrationID: m.IntegrationID,
		ClientID:      m.ClientID,
		Platform:      integration.Platform(m.Platform),
		UpdatedAt:     m.UpdatedAt,
	}
}

// storeOrderUpsertColumns are overwritten when a re-synced order already exists
var storeOrderUpsertColumns = []string{
	"client_id",
	"platform",
	"amount",
	"currency",
	"customer_name",
	"customer_email",
	"status",
	"ordered_at",
	"updated_at",
}

// StoreOrderUpsertColumns returns the columns overwritten on conflict
func StoreOrderUpsertColumns() []string {
	return append([]string(nil), storeOrderUpsertColumns...)
}

// ---------------------------------------------------------------------------
// StoreMetricModel
// ---------------------------------------------------------------------------

// StoreMetricModel is the persistence model for one daily aggregate.
// (integration_id, date) is unique.
type StoreMetricModel struct {
	BaseModel
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_store_metrics_client_date,priority:1"`
	IntegrationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_store_metrics_integration_date,priority:1"`
	Date          time.Time       `gorm:"type:date;not null;uniqueIndex:uq_store_metrics_integration_date,priority:2;index:idx_store_metrics_client_date,priority:2"`
	Revenue       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Orders        int             `gorm:"not null"`
	Customers     int             `gorm:"not null"`
	AvgOrderValue decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency      string          `gorm:"type:varchar(10)"`
}

// TableName returns the table name for GORM
func (StoreMetricModel) TableName() string {
	return "store_metrics"
}

// StoreMetricModelFromDomain creates a model from a daily metric
func StoreMetricModelFromDomain(dm *integration.DailyMetric) *StoreMetricModel {
	m := &StoreMetricModel{
		ClientID:      dm.ClientID,
		IntegrationID: dm.IntegrationID,
		Date:          dm.Date,
		Revenue:       dm.Revenue,
		Orders:        dm.Orders,
		Customers:     dm.Customers,
		AvgOrderValue: dm.AvgOrderValue,
		Currency:      dm.Currency,
	}
	m.EnsureID()
	return m
}

// ToDomain converts the model to a daily metric
func (m *StoreMetricModel) ToDomain() integration.DailyMetric {
	return integration.DailyMetric{
		IntegrationID: m.IntegrationID,
		ClientID:      m.ClientID,
		Date:          integration.BucketDate(m.Date),
		Revenue:       m.Revenue,
		Orders:        m.Orders,
		Customers:     m.Customers,
		AvgOrderValue: m.AvgOrderValue,
		Currency:      m.Currency,
	}
}

// storeMetricUpsertColumns are overwritten when a bucket is recomputed.
// Never additive: a re-sync replaces the previous totals.
var storeMetricUpsertColumns = []string{
	"client_id",
	"revenue",
	"orders",
	"customers",
	"avg_order_value",
	"currency",
	"updated_at",
}

// StoreMetricUpsertColumns returns the columns overwritten on conflict
func StoreMetricUpsertColumns() []string {
	return append([]string(nil), storeMetricUpsertColumns...)
}
