package models

import (
	"time"

	"gorm.io/gorm"

	"stratalpha/internal/uuid"
)

// Base carries the columns shared by every run-history table. IDs are
// UUIDv7 so records sort by creation time without a secondary index.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns an ID to new records that do not bring their own.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
