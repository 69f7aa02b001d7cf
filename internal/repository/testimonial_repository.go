package repository

import (
	"context"

	"gorm.io/gorm"

	"jualapa/internal/model"
)

// TestimonialRepository defines testimonial persistence operations.
type TestimonialRepository interface {
	Create(ctx context.Context, testimonial *model.Testimonial) error
	ListRecent(ctx context.Context, limit int) ([]model.Testimonial, error)
}

type testimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository creates a new testimonial repository.
func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, testimonial *model.Testimonial) error {
	return r.db.WithContext(ctx).Create(testimonial).Error
}

func (r *testimonialRepository) ListRecent(ctx context.Context, limit int) ([]model.Testimonial, error) {
	var testimonials []model.Testimonial
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&testimonials).Error; err != nil {
		return nil, err
	}
	return testimonials, nil
}
