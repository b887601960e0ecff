package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
)

func setupStoreSyncTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, NewDatabaseFromGorm(db).AutoMigrate())
	return db
}

func countOrders(t *testing.T, db *gorm.DB, integrationID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StoreOrderModel{}).Where("integration_id = ?", integrationID).Count(&n).Error)
	return n
}

func seedIntegration(t *testing.T, db *gorm.DB, platform integration.Platform, active bool, createdAt time.Time) *integration.StoreIntegration {
	si := &integration.StoreIntegration{
		ID:          uuid.New(),
		ClientID:    uuid.New(),
		Platform:    platform,
		StoreURL:    "https://shop.example.com",
		AccessToken: "token",
		IsActive:    active,
		CreatedAt:   createdAt,
	}
	require.NoError(t, NewGormStoreIntegrationRepository(db).Save(context.Background(), si))
	return si
}

func orderAt(id, amount, status, email string, at time.Time) integration.Order {
	return integration.Order{
		ExternalID:    id,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		CustomerEmail: email,
		Status:        status,
		OrderedAt:     &at,
	}
}

func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// ---------------------------------------------------------------------------
// Store integrations
// ---------------------------------------------------------------------------

func TestGormStoreIntegrationRepository_FindByID(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormStoreIntegrationRepository(db)
	ctx := context.Background()

	t.Run("finds existing integration", func(t *testing.T) {
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())

		found, err := repo.FindByID(ctx, si.ID)
		require.NoError(t, err)
		assert.Equal(t, si.ID, found.ID)
		assert.Equal(t, si.ClientID, found.ClientID)
		assert.Equal(t, integration.PlatformShopify, found.Platform)
		assert.Equal(t, "token", found.AccessToken)
		assert.Nil(t, found.LastSyncedAt)
	})

	t.Run("returns ErrIntegrationNotFound for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
	})
}

func TestGormStoreIntegrationRepository_FindActive(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormStoreIntegrationRepository(db)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	second := seedIntegration(t, db, integration.PlatformWooCommerce, true, base.Add(time.Hour))
	first := seedIntegration(t, db, integration.PlatformShopify, true, base)
	seedIntegration(t, db, integration.PlatformBigCommerce, false, base)

	active, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
}

func TestGormStoreIntegrationRepository_FindActiveByClient(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormStoreIntegrationRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := seedIntegration(t, db, integration.PlatformShopify, true, base)
	newer := &integration.StoreIntegration{
		ClientID:    older.ClientID,
		Platform:    integration.PlatformBigCommerce,
		StoreHash:   "abc",
		AccessToken: "token",
		IsActive:    true,
		CreatedAt:   base.Add(24 * time.Hour),
	}
	require.NoError(t, repo.Save(ctx, newer))

	found, err := repo.FindActiveByClient(ctx, older.ClientID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)

	_, err = repo.FindActiveByClient(ctx, uuid.New())
	assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
}

func TestGormStoreIntegrationRepository_UpdateLastSyncedAt(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormStoreIntegrationRepository(db)
	ctx := context.Background()

	t.Run("sets last_synced_at", func(t *testing.T) {
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, repo.UpdateLastSyncedAt(ctx, si.ID, at))

		found, err := repo.FindByID(ctx, si.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LastSyncedAt)
		assert.True(t, at.Equal(*found.LastSyncedAt))
	})

	t.Run("missing row returns ErrIntegrationNotFound", func(t *testing.T) {
		err := repo.UpdateLastSyncedAt(ctx, uuid.New(), time.Now())
		assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
	})
}

func TestGormStoreIntegrationRepository_UpdateLastSyncedAt_NoRows(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormStoreIntegrationRepository(gormDB)

	mock.ExpectExec(`UPDATE "store_integrations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLastSyncedAt(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func TestGormStoreOrderRepository_UpsertMany(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	t.Run("re-upserting the same orders keeps one row per order", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		repo := NewGormStoreOrderRepository(db)
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())

		orders := []integration.Order{
			orderAt("1", "10.00", "completed", "a@x.io", day),
			orderAt("2", "30.00", "completed", "b@x.io", day),
		}
		require.NoError(t, repo.UpsertMany(ctx, si, orders))
		require.NoError(t, repo.UpsertMany(ctx, si, orders))

		assert.Equal(t, int64(2), countOrders(t, db, si.ID))
	})

	t.Run("overwrites status and amount of an existing order", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		repo := NewGormStoreOrderRepository(db)
		si := seedIntegration(t, db, integration.PlatformWooCommerce, true, time.Now())

		require.NoError(t, repo.UpsertMany(ctx, si, []integration.Order{
			orderAt("100", "15.00", "pending", "c@x.io", day),
		}))
		require.NoError(t, repo.UpsertMany(ctx, si, []integration.Order{
			orderAt("100", "17.50", "completed", "c@x.io", day),
		}))

		stored, err := repo.FindRecentByClient(ctx, si.ClientID, 10)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "completed", stored[0].Status)
		assert.True(t, decimal.RequireFromString("17.50").Equal(stored[0].Amount))
		assert.Equal(t, si.ID, stored[0].IntegrationID)
	})

	t.Run("same external id under another integration is a separate order", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		repo := NewGormStoreOrderRepository(db)
		a := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())
		b := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())

		require.NoError(t, repo.UpsertMany(ctx, a, []integration.Order{orderAt("1", "1.00", "paid", "", day)}))
		require.NoError(t, repo.UpsertMany(ctx, b, []integration.Order{orderAt("1", "2.00", "paid", "", day)}))

		countA := countOrders(t, db, a.ID)
		countB := countOrders(t, db, b.ID)
		assert.Equal(t, int64(1), countA)
		assert.Equal(t, int64(1), countB)
	})

	t.Run("duplicate external ids in one batch keep the last copy", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		repo := NewGormStoreOrderRepository(db)
		si := seedIntegration(t, db, integration.PlatformBigCommerce, true, time.Now())

		require.NoError(t, repo.UpsertMany(ctx, si, []integration.Order{
			orderAt("7", "5.00", "pending", "", day),
			orderAt("7", "6.00", "shipped", "", day),
		}))

		stored, err := repo.FindRecentByClient(ctx, si.ClientID, 10)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "shipped", stored[0].Status)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		repo := NewGormStoreOrderRepository(db)
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())

		assert.NoError(t, repo.UpsertMany(ctx, si, nil))
	})
}

func TestGormStoreOrderRepository_FindRecentByClient(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormStoreOrderRepository(db)
	ctx := context.Background()
	si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())

	undated := integration.Order{ExternalID: "undated", Amount: decimal.NewFromInt(1), Status: "paid"}
	require.NoError(t, repo.UpsertMany(ctx, si, []integration.Order{
		orderAt("old", "1.00", "paid", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		undated,
		orderAt("new", "1.00", "paid", "", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	}))

	stored, err := repo.FindRecentByClient(ctx, si.ClientID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "new", stored[0].ExternalID)
	assert.Equal(t, "old", stored[1].ExternalID)
	assert.Equal(t, "undated", stored[2].ExternalID)
	assert.Nil(t, stored[2].OrderedAt)

	limited, err := repo.FindRecentByClient(ctx, si.ClientID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ExternalID)
}

// ---------------------------------------------------------------------------
// Daily metrics
// ---------------------------------------------------------------------------

func TestGormDailyMetricRepository_UpsertMany(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormDailyMetricRepository(db)
	ctx := context.Background()
	integrationID := uuid.New()
	clientID := uuid.New()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	first := integration.DailyMetric{
		IntegrationID: integrationID,
		ClientID:      clientID,
		Date:          day,
		Revenue:       decimal.RequireFromString("40.00"),
		Orders:        2,
		Customers:     2,
		AvgOrderValue: decimal.RequireFromString("20.00"),
		Currency:      "USD",
	}
	require.NoError(t, repo.UpsertMany(ctx, []integration.DailyMetric{first}))

	// A recomputed bucket replaces the totals instead of adding to them.
	recomputed := first
	recomputed.Revenue = decimal.RequireFromString("55.00")
	recomputed.Orders = 3
	recomputed.AvgOrderValue = decimal.RequireFromString("18.33")
	require.NoError(t, repo.UpsertMany(ctx, []integration.DailyMetric{recomputed}))

	var count int64
	require.NoError(t, db.Model(&models.StoreMetricModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	latest, err := repo.FindLatestByClient(ctx, clientID, 5)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, decimal.RequireFromString("55.00").Equal(latest[0].Revenue))
	assert.Equal(t, 3, latest[0].Orders)
	assert.Equal(t, "2024-01-05", latest[0].DateKey())
}

func TestGormDailyMetricRepository_Queries(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormDailyMetricRepository(db)
	ctx := context.Background()
	integrationID := uuid.New()
	clientID := uuid.New()

	var metrics []integration.DailyMetric
	for i := 1; i <= 5; i++ {
		metrics = append(metrics, integration.DailyMetric{
			IntegrationID: integrationID,
			ClientID:      clientID,
			Date:          time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
			Revenue:       decimal.NewFromInt(int64(i * 10)),
			Orders:        i,
			Customers:     1,
			AvgOrderValue: decimal.NewFromInt(10),
			Currency:      "USD",
		})
	}
	require.NoError(t, repo.UpsertMany(ctx, metrics))

	t.Run("FindByClientBetween is inclusive and ascending", func(t *testing.T) {
		rows, err := repo.FindByClientBetween(ctx, clientID,
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "2024-01-02", rows[0].DateKey())
		assert.Equal(t, "2024-01-04", rows[2].DateKey())
	})

	t.Run("FindLatestByClient is descending", func(t *testing.T) {
		rows, err := repo.FindLatestByClient(ctx, clientID, 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "2024-01-05", rows[0].DateKey())
		assert.Equal(t, "2024-01-04", rows[1].DateKey())
	})

	t.Run("other clients see nothing", func(t *testing.T) {
		rows, err := repo.FindLatestByClient(ctx, uuid.New(), 2)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

// ---------------------------------------------------------------------------
// Transactor
// ---------------------------------------------------------------------------

func TestGormTransactor_WithinTransaction(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	t.Run("commits every write when fn succeeds", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())
		now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		err := NewGormTransactor(db).WithinTransaction(ctx, func(ctx context.Context, repos integration.SyncRepositories) error {
			if err := repos.Orders.UpsertMany(ctx, si, []integration.Order{orderAt("1", "10.00", "paid", "", day)}); err != nil {
				return err
			}
			return repos.Integrations.UpdateLastSyncedAt(ctx, si.ID, now)
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), countOrders(t, db, si.ID))

		found, err := NewGormStoreIntegrationRepository(db).FindByID(ctx, si.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LastSyncedAt)
	})

	t.Run("rolls back orders when the integration vanished", func(t *testing.T) {
		db := setupStoreSyncTestDB(t)
		si := seedIntegration(t, db, integration.PlatformShopify, true, time.Now())
		ghost := *si
		ghost.ID = uuid.New()

		err := NewGormTransactor(db).WithinTransaction(ctx, func(ctx context.Context, repos integration.SyncRepositories) error {
			if err := repos.Orders.UpsertMany(ctx, &ghost, []integration.Order{orderAt("1", "10.00", "paid", "", day)}); err != nil {
				return err
			}
			return repos.Integrations.UpdateLastSyncedAt(ctx, ghost.ID, time.Now())
		})
		assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)

		assert.Zero(t, countOrders(t, db, ghost.ID))
	})
}

func TestGormTransactor_RollbackOnError(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewGormTransactor(gormDB).WithinTransaction(context.Background(), func(context.Context, integration.SyncRepositories) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

func TestGormProfileRepository_FindByID(t *testing.T) {
	db := setupStoreSyncTestDB(t)
	repo := NewGormProfileRepository(db)
	ctx := context.Background()

	admin := models.ProfileModel{
		ID:        uuid.New(),
		Email:     "ops@example.com",
		FullName:  "Ops",
		Role:      "admin",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&admin).Error)

	found, err := repo.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())
	assert.Equal(t, "ops@example.com", found.Email)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, identity.ErrProfileNotFound)
}

func TestDatabase_PingAndStats(t *testing.T) {
	db := NewDatabaseFromGorm(setupStoreSyncTestDB(t))

	require.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}
