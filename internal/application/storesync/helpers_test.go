package storesync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
)

// MockOrderSource is a mock implementation of integration.OrderSource
type MockOrderSource struct {
	mock.Mock
	platform integration.Platform
}

func newMockOrderSource(platform integration.Platform) *MockOrderSource {
	return &MockOrderSource{platform: platform}
}

func (m *MockOrderSource) Platform() integration.Platform {
	return m.platform
}

func (m *MockOrderSource) FetchOrders(ctx context.Context, si *integration.StoreIntegration, since time.Time) ([]integration.Order, error) {
	args := m.Called(ctx, si, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Order), args.Error(1)
}

var _ integration.OrderSource = (*MockOrderSource)(nil)

// testStore wires the gorm repositories over a private in-memory database
type testStore struct {
	db           *gorm.DB
	integrations *persistence.GormStoreIntegrationRepository
	orders       *persistence.GormStoreOrderRepository
	metrics      *persistence.GormDailyMetricRepository
	transactor   *persistence.GormTransactor
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.NewDatabaseFromGorm(db).AutoMigrate())

	return &testStore{
		db:           db,
		integrations: persistence.NewGormStoreIntegrationRepository(db),
		orders:       persistence.NewGormStoreOrderRepository(db),
		metrics:      persistence.NewGormDailyMetricRepository(db),
		transactor:   persistence.NewGormTransactor(db),
	}
}

func (s *testStore) seed(t *testing.T, si *integration.StoreIntegration) *integration.StoreIntegration {
	t.Helper()
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	if si.ClientID == uuid.Nil {
		si.ClientID = uuid.New()
	}
	require.NoError(t, s.integrations.Save(context.Background(), si))
	return si
}

func (s *testStore) countOrders(t *testing.T, integrationID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&models.StoreOrderModel{}).Where("integration_id = ?", integrationID).Count(&n).Error)
	return n
}

func shopifyIntegration(createdAt time.Time) *integration.StoreIntegration {
	return &integration.StoreIntegration{
		Platform:    integration.PlatformShopify,
		StoreURL:    "https://demo.myshopify.com",
		AccessToken: "shpat_test",
		IsActive:    true,
		CreatedAt:   createdAt,
	}
}

func canonicalOrder(id, amount, status, email, at string) integration.Order {
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	return integration.Order{
		ExternalID:    id,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		CustomerName:  "Jane Doe",
		CustomerEmail: email,
		Status:        status,
		OrderedAt:     &ts,
	}
}

// exampleOrders are two January days, one of which carries a refund
func exampleOrders() []integration.Order {
	return []integration.Order{
		canonicalOrder("1001", "40.00", "completed", "jane@example.com", "2024-01-05T10:00:00Z"),
		canonicalOrder("1002", "15.00", "refunded", "jane@example.com", "2024-01-05T11:00:00Z"),
		canonicalOrder("1003", "20.00", "completed", "jane@example.com", "2024-01-06T09:30:00Z"),
	}
}

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
