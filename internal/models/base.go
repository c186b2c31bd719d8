package models

import (
	"time"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the identity and audit columns shared by every ledger table.
// Rows are soft-deleted so ledger entries keep pointing at their source.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// OwnedBy scopes a query to the rows of one user. Single-record lookups go
// through it, so a foreign ID reads as not found.
func OwnedBy(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
