package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogKind distinguishes the catalog entities sharing the catalog_items table.
type CatalogKind string

const (
	KindIngredient CatalogKind = "ingredient"
	KindPackaging  CatalogKind = "packaging"
	KindTool       CatalogKind = "tool"
)

// CatalogItem is an ingredient, packaging or tool that products reference.
type CatalogItem struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Kind          CatalogKind     `json:"kind" gorm:"type:varchar(20);not null;index"`
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	Amount        string          `json:"amount" gorm:"size:255;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Image         string          `json:"image" gorm:"size:1024"`
	ImagePublicID string          `json:"image_public_id" gorm:"size:255"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *CatalogItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
