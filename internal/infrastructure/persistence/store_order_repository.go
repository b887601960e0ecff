package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
)

// upsertBatchSize bounds the number of rows per INSERT statement
const upsertBatchSize = 500

// GormStoreOrderRepository implements StoreOrderRepository using GORM
type GormStoreOrderRepository struct {
	db *gorm.DB
}

// NewGormStoreOrderRepository creates a new GormStoreOrderRepository
func NewGormStoreOrderRepository(db *gorm.DB) *GormStoreOrderRepository {
	return &GormStoreOrderRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormStoreOrderRepository) WithTx(tx *gorm.DB) *GormStoreOrderRepository {
	return &GormStoreOrderRepository{db: tx}
}

// UpsertMany inserts orders or overwrites existing rows with the same
// (integration_id, external_id)
func (r *GormStoreOrderRepository) UpsertMany(ctx context.Context, si *integration.StoreIntegration, orders []integration.Order) error {
	if len(orders) == 0 {
		return nil
	}

	rows := make([]*models.StoreOrderModel, 0, len(orders))
	seen := make(map[string]int, len(orders))
	for i := range orders {
		row := models.StoreOrderModelFromDomain(si, &orders[i])
		// A platform can return the same order twice across pages; keep the last
		// copy so one statement never touches the same key twice.
		if idx, dup := seen[row.ExternalID]; dup {
			row.ID = rows[idx].ID
			rows[idx] = row
			continue
		}
		seen[row.ExternalID] = len(rows)
		rows = append(rows, row)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "integration_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(models.StoreOrderUpsertColumns()),
	}).CreateInBatches(rows, upsertBatchSize).Error
}

// FindRecentByClient returns the newest orders for a client; orders without a
// timestamp sort last
func (r *GormStoreOrderRepository) FindRecentByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]integration.StoredOrder, error) {
	var rows []models.StoreOrderModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("ordered_at IS NULL").
		Order("ordered_at DESC").
		Order("external_id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]integration.StoredOrder, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

var _ integration.StoreOrderRepository = (*GormStoreOrderRepository)(nil)
