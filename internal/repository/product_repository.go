package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jualapa/internal/model"
)

// Sort keys accepted by the product listing.
const (
	SortNewest     = ""
	SortPopularity = "popularity"
	SortStars      = "stars"
	SortCapital    = "capital"
)

var productSortColumns = map[string]string{
	SortNewest:     "created_at",
	SortPopularity: "views",
	SortStars:      "stars",
	SortCapital:    "capital",
}

// ProductFilter narrows and orders the product listing.
type ProductFilter struct {
	Query      string
	Category   model.Category
	MaxCapital *decimal.Decimal
	CreatedBy  *uuid.UUID
	Verified   *bool
	Sort       string
	Ascending  bool
	Page       Page
}

// ValidProductSort reports whether s names a known sort key.
func ValidProductSort(s string) bool {
	_, ok := productSortColumns[s]
	return ok
}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves an existing product. Views and stars are owned by their
// counters and never overwritten here.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Select("*").Omit("views", "stars", "created_at", "created_by").Updates(product).Error
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products among ids, newest first.
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List returns one page of products matching filter, plus the total match count.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MaxCapital != nil {
		q = q.Where("capital <= ?", *filter.MaxCapital)
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Verified != nil {
		q = q.Where("is_verified = ?", *filter.Verified)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := productSortColumns[filter.Sort]
	if !ok {
		column = productSortColumns[SortNewest]
	}
	var products []model.Product
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: !filter.Ascending}).
		Scopes(paginate(filter.Page)).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// IncrementViews bumps the view counter atomically.
func (r *productRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetVerified flips the moderation flag. MySQL reports zero affected rows
// when the flag already holds the value, so existence is the caller's check.
func (r *productRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_verified", verified).Error
}

// Delete removes the product and every star pointing at it.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.Star{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
