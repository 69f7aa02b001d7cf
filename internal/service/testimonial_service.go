package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

const defaultTestimonialLimit = 12

// TestimonialService appends and lists testimonials.
type TestimonialService interface {
	Create(ctx context.Context, name, text, picture string) (*model.Testimonial, error)
	ListRecent(ctx context.Context, limit int) ([]model.Testimonial, error)
}

type testimonialService struct {
	repo repository.TestimonialRepository
}

// NewTestimonialService builds a TestimonialService.
func NewTestimonialService(repo repository.TestimonialRepository) TestimonialService {
	return &testimonialService{repo: repo}
}

func (s *testimonialService) Create(ctx context.Context, name, text, picture string) (*model.Testimonial, error) {
	t := &model.Testimonial{
		Name:    strings.TrimSpace(name),
		Text:    strings.TrimSpace(text),
		Picture: strings.TrimSpace(picture),
	}
	if t.Name == "" || t.Text == "" || t.Picture == "" {
		return nil, apperrors.NewValidationError("name, text and picture are required")
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	return t, nil
}

func (s *testimonialService) ListRecent(ctx context.Context, limit int) ([]model.Testimonial, error) {
	if limit < 1 {
		limit = defaultTestimonialLimit
	}
	if limit > repository.MaxPageSize {
		limit = repository.MaxPageSize
	}
	items, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	if items == nil {
		items = []model.Testimonial{}
	}
	return items, nil
}
