package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storesync/backend/internal/domain/identity"
)

// ProfileModel is the persistence model for a portal profile
type ProfileModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Email     string    `gorm:"type:varchar(255)"`
	FullName  string    `gorm:"type:varchar(255)"`
	Role      string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the model to a domain profile
func (m *ProfileModel) ToDomain() *identity.Profile {
	return &identity.Profile{
		ID:        m.ID,
		Email:     m.Email,
		FullName:  m.FullName,
		Role:      identity.Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}
