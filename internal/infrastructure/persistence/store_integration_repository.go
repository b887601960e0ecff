package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
)

// GormStoreIntegrationRepository implements StoreIntegrationRepository using GORM
type GormStoreIntegrationRepository struct {
	db *gorm.DB
}

// NewGormStoreIntegrationRepository creates a new GormStoreIntegrationRepository
func NewGormStoreIntegrationRepository(db *gorm.DB) *GormStoreIntegrationRepository {
	return &GormStoreIntegrationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormStoreIntegrationRepository) WithTx(tx *gorm.DB) *GormStoreIntegrationRepository {
	return &GormStoreIntegrationRepository{db: tx}
}

// FindByID finds an integration by its ID
func (r *GormStoreIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.StoreIntegration, error) {
	var model models.StoreIntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns all active integrations, oldest first
func (r *GormStoreIntegrationRepository) FindActive(ctx context.Context) ([]integration.StoreIntegration, error) {
	var rows []models.StoreIntegrationModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]integration.StoreIntegration, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, nil
}

// FindActiveByClient returns the client's newest active integration
func (r *GormStoreIntegrationRepository) FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*integration.StoreIntegration, error) {
	var model models.StoreIntegrationModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND is_active = ?", clientID, true).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateLastSyncedAt records a successful sync. Only last_synced_at and
// updated_at are written.
func (r *GormStoreIntegrationRepository) UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.StoreIntegrationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_synced_at": at,
			"updated_at":     at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// Save creates or replaces an integration. Used by seeding and tests; the
// sync engine itself never creates integrations.
func (r *GormStoreIntegrationRepository) Save(ctx context.Context, si *integration.StoreIntegration) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	now := time.Now()
	if si.CreatedAt.IsZero() {
		si.CreatedAt = now
	}
	si.UpdatedAt = now
	return r.db.WithContext(ctx).Save(models.StoreIntegrationModelFromDomain(si)).Error
}

var _ integration.StoreIntegrationRepository = (*GormStoreIntegrationRepository)(nil)
