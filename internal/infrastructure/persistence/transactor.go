package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/storesync/backend/internal/domain/integration"
)

// GormTransactor runs sync writes inside one database transaction
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a new GormTransactor
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinTransaction runs fn with repositories bound to a transaction.
// The transaction commits only if fn returns nil.
func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos integration.SyncRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, integration.SyncRepositories{
			Integrations: NewGormStoreIntegrationRepository(tx),
			Orders:       NewGormStoreOrderRepository(tx),
			Metrics:      NewGormDailyMetricRepository(tx),
		})
	})
}

var _ integration.Transactor = (*GormTransactor)(nil)
