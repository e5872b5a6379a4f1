package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is reference data; name and slug are globally unique.
type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Slug string    `gorm:"size:150;uniqueIndex;not null" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
