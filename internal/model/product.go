package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxProductImages caps the number of images per listing.
const MaxProductImages = 5

// ProductImage references an image hosted by the external upload service.
type ProductImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Product is a listing posted by a seller.
type Product struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey"`
	SellerID    uuid.UUID       `gorm:"type:char(36);not null;index"`
	Title       string          `gorm:"size:160;not null"`
	Description string          `gorm:"type:text;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CategoryID  uuid.UUID       `gorm:"type:char(36);not null;index"`
	Images      []ProductImage  `gorm:"type:text;serializer:json"`
	PublishedAt time.Time       `gorm:"not null;index"`
}

// BeforeCreate sets UUID and publish time before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	return nil
}

// ProductLike is one member of a product's likedUsers set.
type ProductLike struct {
	ProductID uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

// All lists the models owned by the schema migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&ProductLike{},
	}
}
