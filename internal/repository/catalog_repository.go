package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/model"
)

// CatalogRepository defines persistence for ingredients, packaging and tools.
// Every lookup is scoped to one kind.
type CatalogRepository interface {
	Create(ctx context.Context, item *model.CatalogItem) error
	Update(ctx context.Context, item *model.CatalogItem) error
	FindByID(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error)
	FindByIDs(ctx context.Context, kind model.CatalogKind, ids []uuid.UUID) ([]model.CatalogItem, error)
	List(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogItem, error)
	Delete(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error
	UpsertByName(ctx context.Context, item *model.CatalogItem) error
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// Create creates a new catalog item.
func (r *catalogRepository) Create(ctx context.Context, item *model.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update updates an existing catalog item.
func (r *catalogRepository) Update(ctx context.Context, item *model.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindByID finds a catalog item of the given kind.
func (r *catalogRepository) FindByID(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := r.db.WithContext(ctx).Where("id = ? AND kind = ?", id, kind).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs returns the items of the given kind among ids. Missing ids are
// simply absent from the result.
func (r *catalogRepository) FindByIDs(ctx context.Context, kind model.CatalogKind, ids []uuid.UUID) ([]model.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.CatalogItem
	if err := r.db.WithContext(ctx).Where("kind = ? AND id IN ?", kind, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List returns items of one kind, newest first, optionally filtered by name.
func (r *catalogRepository) List(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogItem, error) {
	q := r.db.WithContext(ctx).Where("kind = ?", kind)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var items []model.CatalogItem
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a catalog item of the given kind.
func (r *catalogRepository) Delete(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND kind = ?", id, kind).Delete(&model.CatalogItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertByName creates the item or refreshes the one with the same kind and name.
func (r *catalogRepository) UpsertByName(ctx context.Context, item *model.CatalogItem) error {
	return r.db.WithContext(ctx).
		Where(model.CatalogItem{Kind: item.Kind, Name: item.Name}).
		Assign(model.CatalogItem{
			Amount:        item.Amount,
			Price:         item.Price,
			Image:         item.Image,
			ImagePublicID: item.ImagePublicID,
		}).
		FirstOrCreate(item).Error
}
