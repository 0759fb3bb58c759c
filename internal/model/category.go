package model

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoryNames are seeded at startup and restored by the test-utils reset.
var DefaultCategoryNames = []string{"clothes", "shoes", "phones", "tablets", "laptops"}

// Category groups listings. Name is stored normalized and is unique.
type Category struct {
	ID   uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name string    `json:"name" gorm:"uniqueIndex;size:64;not null"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NormalizeCategoryName trims and lowercases a category name.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
