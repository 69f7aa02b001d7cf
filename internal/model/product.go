package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryFood  Category = "food"
	CategoryDrink Category = "drink"
)

// ItemRef points at a catalog item with the quantity a recipe needs.
// Qty is optional only for tools.
type ItemRef struct {
	Item uuid.UUID `json:"item"`
	Qty  *float64  `json:"qty,omitempty"`
}

// Product is a sellable recipe authored by a user.
type Product struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Title                 string          `json:"title" gorm:"size:255;not null;index"`
	Category              Category        `json:"category" gorm:"type:varchar(20);not null;index"`
	Tags                  []string        `json:"tags" gorm:"serializer:json;type:text"`
	Steps                 []string        `json:"steps" gorm:"serializer:json;type:text"`
	Tips                  []string        `json:"tips" gorm:"serializer:json;type:text"`
	Ingredients           []ItemRef       `json:"ingredients" gorm:"serializer:json;type:text"`
	Packaging             []ItemRef       `json:"packaging" gorm:"serializer:json;type:text"`
	Tools                 []ItemRef       `json:"tools" gorm:"serializer:json;type:text"`
	IsVerified            bool            `json:"is_verified" gorm:"not null;default:false;index"`
	Views                 int64           `json:"views" gorm:"not null;default:0"`
	Stars                 int64           `json:"stars" gorm:"not null;default:0"`
	CreatedBy             uuid.UUID       `json:"created_by" gorm:"type:char(36);not null;index"`
	EstimatedSellingPrice decimal.Decimal `json:"estimated_selling_price" gorm:"type:decimal(20,2);not null;default:0"`
	ProductionYield       int             `json:"production_yield" gorm:"not null;default:1"`
	DailySalesTarget      int             `json:"daily_sales_target" gorm:"not null;default:1"`
	Capital               decimal.Decimal `json:"capital" gorm:"type:decimal(20,2);not null;default:0;index"`
	Image                 string          `json:"image" gorm:"size:1024"`
	ImagePublicID         string          `json:"image_public_id" gorm:"size:255"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Star records that a user starred a product. Product.Stars mirrors the
// number of rows per product.
type Star struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);primaryKey"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default "stars".
func (Star) TableName() string { return "product_stars" }
