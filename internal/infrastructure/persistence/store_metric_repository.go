package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
)

// GormDailyMetricRepository implements DailyMetricRepository using GORM
type GormDailyMetricRepository struct {
	db *gorm.DB
}

// NewGormDailyMetricRepository creates a new GormDailyMetricRepository
func NewGormDailyMetricRepository(db *gorm.DB) *GormDailyMetricRepository {
	return &GormDailyMetricRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormDailyMetricRepository) WithTx(tx *gorm.DB) *GormDailyMetricRepository {
	return &GormDailyMetricRepository{db: tx}
}

// UpsertMany inserts metrics or replaces the totals of existing
// (integration_id, date) rows
func (r *GormDailyMetricRepository) UpsertMany(ctx context.Context, metrics []integration.DailyMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	rows := make([]*models.StoreMetricModel, len(metrics))
	for i := range metrics {
		rows[i] = models.StoreMetricModelFromDomain(&metrics[i])
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "integration_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(models.StoreMetricUpsertColumns()),
	}).CreateInBatches(rows, upsertBatchSize).Error
}

// FindByClientBetween returns metrics with from <= date <= to, oldest first
func (r *GormDailyMetricRepository) FindByClientBetween(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]integration.DailyMetric, error) {
	var rows []models.StoreMetricModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND date >= ? AND date <= ?", clientID, integration.BucketDate(from), integration.BucketDate(to)).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDailyMetrics(rows), nil
}

// FindLatestByClient returns the newest limit metrics, newest first
func (r *GormDailyMetricRepository) FindLatestByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]integration.DailyMetric, error) {
	var rows []models.StoreMetricModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDailyMetrics(rows), nil
}

func toDailyMetrics(rows []models.StoreMetricModel) []integration.DailyMetric {
	result := make([]integration.DailyMetric, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result
}

var _ integration.DailyMetricRepository = (*GormDailyMetricRepository)(nil)
