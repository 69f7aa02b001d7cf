package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/model"
)

// StarRepository defines persistence for product stars. A star row and the
// product's stars counter are only ever changed together inside WithTransaction.
type StarRepository interface {
	IsStarred(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	AdjustProductStars(ctx context.Context, productID uuid.UUID, delta int) error
	ListProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo StarRepository) error) error
}

type starRepository struct {
	db *gorm.DB
}

// NewStarRepository creates a new star repository.
func NewStarRepository(db *gorm.DB) StarRepository {
	return &starRepository{db: db}
}

// IsStarred reports whether the user has starred the product.
func (r *starRepository) IsStarred(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Star{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts a star row.
func (r *starRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&model.Star{UserID: userID, ProductID: productID}).Error
}

// Remove deletes a star row and reports whether one existed.
func (r *starRepository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Star{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdjustProductStars moves the product's counter by delta. It returns
// gorm.ErrRecordNotFound when the product does not exist.
func (r *starRepository) AdjustProductStars(ctx context.Context, productID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stars", gorm.Expr("stars + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListProductIDs returns the ids of every product the user starred, newest star first.
func (r *starRepository) ListProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Star{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// WithTransaction executes a function within a database transaction.
func (r *starRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo StarRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &starRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
