package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"jualapa/internal/cache"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogInput is a create or partial update of a catalog item. Nil fields
// are left alone on update.
type CatalogInput struct {
	Name          *string
	Amount        *string
	Price         *decimal.Decimal
	Image         *string
	ImagePublicID *string
}

// CatalogService manages ingredients, packaging and tools.
type CatalogService interface {
	List(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogItem, error)
	Get(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error)
	Create(ctx context.Context, kind model.CatalogKind, in CatalogInput) (*model.CatalogItem, error)
	Update(ctx context.Context, kind model.CatalogKind, id uuid.UUID, in CatalogInput) (*model.CatalogItem, error)
	Delete(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error
}

type catalogService struct {
	repo  repository.CatalogRepository
	media media.Store
	cache *cache.Client
}

// NewCatalogService builds a CatalogService with repository and cache.
func NewCatalogService(repo repository.CatalogRepository, mediaStore media.Store, cache *cache.Client) CatalogService {
	return &catalogService{repo: repo, media: mediaStore, cache: cache}
}

func (s *catalogService) cacheKey(kind model.CatalogKind, id uuid.UUID) string {
	return fmt.Sprintf("catalog:%s:%s", kind, id)
}

func (s *catalogService) List(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogItem, error) {
	items, err := s.repo.List(ctx, kind, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	if items == nil {
		items = []model.CatalogItem{}
	}
	return items, nil
}

func (s *catalogService) Get(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(kind, id)); data != nil {
		var cached model.CatalogItem
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	item, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(item); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(kind, id), payload, catalogCacheTTL)
	}
	return item, nil
}

func (s *catalogService) find(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error) {
	item, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return item, nil
}

func (s *catalogService) Create(ctx context.Context, kind model.CatalogKind, in CatalogInput) (*model.CatalogItem, error) {
	if in.Name == nil || *in.Name == "" || in.Amount == nil || *in.Amount == "" {
		return nil, apperrors.NewValidationError("name and amount are required")
	}
	if in.Price == nil || !in.Price.IsPositive() {
		return nil, apperrors.NewValidationError("price must be greater than 0")
	}
	if in.Image == nil || *in.Image == "" || in.ImagePublicID == nil || *in.ImagePublicID == "" {
		return nil, apperrors.NewValidationError("image and image_public_id are required")
	}

	item := &model.CatalogItem{
		Kind:          kind,
		Name:          *in.Name,
		Amount:        *in.Amount,
		Price:         *in.Price,
		Image:         *in.Image,
		ImagePublicID: *in.ImagePublicID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return item, nil
}

// Update applies a partial update. A new image replaces the old one only
// after the old asset has been deleted.
func (s *catalogService) Update(ctx context.Context, kind model.CatalogKind, id uuid.UUID, in CatalogInput) (*model.CatalogItem, error) {
	item, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != "" {
		item.Name = *in.Name
	}
	if in.Amount != nil && *in.Amount != "" {
		item.Amount = *in.Amount
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, apperrors.NewValidationError("price must be greater than 0")
		}
		item.Price = *in.Price
	}
	if in.Image != nil && *in.Image != "" && in.ImagePublicID != nil && *in.ImagePublicID != "" {
		if item.ImagePublicID != "" && item.ImagePublicID != *in.ImagePublicID {
			if err := s.media.Delete(ctx, item.ImagePublicID); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
			}
		}
		item.Image = *in.Image
		item.ImagePublicID = *in.ImagePublicID
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(kind, id))
	return item, nil
}

// Delete removes the image first, then the item.
func (s *catalogService) Delete(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error {
	item, err := s.find(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, item.ImagePublicID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCatalogItemNotFound
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(kind, id))
	return nil
}
