package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

const defaultProductPageSize = 12

// ProductInput is a create or partial update of a product. Nil pointers and
// nil slices are left alone on update; an empty slice clears the list.
type ProductInput struct {
	Title                 *string
	Category              *model.Category
	Tags                  []string
	Steps                 []string
	Tips                  []string
	Ingredients           []model.ItemRef
	Packaging             []model.ItemRef
	Tools                 []model.ItemRef
	EstimatedSellingPrice *decimal.Decimal
	ProductionYield       *int
	DailySalesTarget      *int
	Capital               *decimal.Decimal
	Image                 *string
	ImagePublicID         *string
}

// ProductSummary is the listing view of a product.
type ProductSummary struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Category   model.Category  `json:"category"`
	Image      string          `json:"image"`
	Views      int64           `json:"views"`
	Stars      int64           `json:"stars"`
	Capital    decimal.Decimal `json:"capital"`
	IsVerified bool            `json:"is_verified"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products   []ProductSummary `json:"products"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// ResolvedItem is an item reference with its catalog entry loaded. Item is
// nil when the entry was deleted after the product was written.
type ResolvedItem struct {
	Item *model.CatalogItem `json:"item"`
	Qty  *float64           `json:"qty,omitempty"`
}

// Creator identifies the author of a product.
type Creator struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// ProductDetail is a product with its references resolved.
type ProductDetail struct {
	*model.Product
	CreatedBy   *Creator       `json:"created_by"`
	Ingredients []ResolvedItem `json:"ingredients"`
	Packaging   []ResolvedItem `json:"packaging"`
	Tools       []ResolvedItem `json:"tools"`
}

// ProductService manages products.
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Create(ctx context.Context, createdBy uuid.UUID, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*model.Product, error)
}

type productService struct {
	products repository.ProductRepository
	catalog  repository.CatalogRepository
	users    repository.UserRepository
	media    media.Store
}

// NewProductService builds a ProductService.
func NewProductService(
	products repository.ProductRepository,
	catalog repository.CatalogRepository,
	users repository.UserRepository,
	mediaStore media.Store,
) ProductService {
	return &productService{products: products, catalog: catalog, users: users, media: mediaStore}
}

func (s *productService) find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	filter.Page = filter.Page.Normalize(defaultProductPageSize)
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, ProductSummary{
			ID:         p.ID,
			Title:      p.Title,
			Category:   p.Category,
			Image:      p.Image,
			Views:      p.Views,
			Stars:      p.Stars,
			Capital:    p.Capital,
			IsVerified: p.IsVerified,
			CreatedAt:  p.CreatedAt,
		})
	}
	return &ProductPage{
		Products:   summaries,
		Total:      total,
		Page:       filter.Page.Page,
		Limit:      filter.Page.Limit,
		TotalPages: totalPages(total, filter.Page.Limit),
	}, nil
}

// Get returns the product detail and counts one view.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.products.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("count view: %w", err)
	}
	product.Views++

	detail := &ProductDetail{Product: product}
	if detail.Ingredients, err = s.resolve(ctx, model.KindIngredient, product.Ingredients); err != nil {
		return nil, err
	}
	if detail.Packaging, err = s.resolve(ctx, model.KindPackaging, product.Packaging); err != nil {
		return nil, err
	}
	if detail.Tools, err = s.resolve(ctx, model.KindTool, product.Tools); err != nil {
		return nil, err
	}

	creator, err := s.users.FindByID(ctx, product.CreatedBy)
	switch {
	case err == nil:
		detail.CreatedBy = &Creator{ID: creator.ID, Username: creator.Username}
	case errors.Is(err, gorm.ErrRecordNotFound):
		detail.CreatedBy = &Creator{ID: product.CreatedBy}
	default:
		return nil, fmt.Errorf("find creator: %w", err)
	}
	return detail, nil
}

func (s *productService) resolve(ctx context.Context, kind model.CatalogKind, refs []model.ItemRef) ([]ResolvedItem, error) {
	out := make([]ResolvedItem, 0, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	items, err := s.catalog.FindByIDs(ctx, kind, refIDs(refs))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", kind, err)
	}
	byID := make(map[uuid.UUID]*model.CatalogItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	for _, ref := range refs {
		out = append(out, ResolvedItem{Item: byID[ref.Item], Qty: ref.Qty})
	}
	return out, nil
}

// Create validates and stores a new, unverified product.
func (s *productService) Create(ctx context.Context, createdBy uuid.UUID, in ProductInput) (*model.Product, error) {
	if in.Title == nil || in.Category == nil || in.Image == nil || in.ImagePublicID == nil {
		return nil, apperrors.NewValidationError("title, category, image and image_public_id are required")
	}
	if in.EstimatedSellingPrice == nil || in.ProductionYield == nil || in.DailySalesTarget == nil || in.Capital == nil {
		return nil, apperrors.NewValidationError("estimated_selling_price, production_yield, daily_sales_target and capital are required")
	}

	product := &model.Product{
		CreatedBy:  createdBy,
		IsVerified: false,
		Tags:       []string{},
		Steps:      []string{},
		Tips:       []string{},
	}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if product.Image == "" || product.ImagePublicID == "" {
		return nil, apperrors.NewValidationError("image and image_public_id are required")
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update applies a partial update. A new image replaces the old one only
// after the old asset has been deleted.
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*model.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPublicID := product.ImagePublicID
	swapImage := in.Image != nil && *in.Image != "" && in.ImagePublicID != nil && *in.ImagePublicID != ""
	if !swapImage {
		in.Image, in.ImagePublicID = nil, nil
	}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}

	if swapImage && oldPublicID != "" && oldPublicID != product.ImagePublicID {
		if err := s.media.Delete(ctx, oldPublicID); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
		}
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// apply validates every field present in in and copies it onto product.
func (s *productService) apply(ctx context.Context, product *model.Product, in ProductInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if len([]rune(title)) < 3 {
			return apperrors.NewValidationError("title must be at least 3 characters")
		}
		product.Title = title
	}
	if in.Category != nil {
		category := model.Category(strings.ToLower(strings.TrimSpace(string(*in.Category))))
		if category != model.CategoryFood && category != model.CategoryDrink {
			return apperrors.NewValidationError("category must be 'food' or 'drink'")
		}
		product.Category = category
	}
	if in.Tags != nil {
		product.Tags = in.Tags
	}
	if in.Steps != nil {
		product.Steps = in.Steps
	}
	if in.Tips != nil {
		product.Tips = in.Tips
	}

	if in.EstimatedSellingPrice != nil {
		if in.EstimatedSellingPrice.IsNegative() {
			return apperrors.NewValidationError("estimated_selling_price must be >= 0")
		}
		product.EstimatedSellingPrice = *in.EstimatedSellingPrice
	}
	if in.ProductionYield != nil {
		if *in.ProductionYield < 1 {
			return apperrors.NewValidationError("production_yield must be >= 1")
		}
		product.ProductionYield = *in.ProductionYield
	}
	if in.DailySalesTarget != nil {
		if *in.DailySalesTarget < 1 {
			return apperrors.NewValidationError("daily_sales_target must be >= 1")
		}
		product.DailySalesTarget = *in.DailySalesTarget
	}
	if in.Capital != nil {
		if in.Capital.IsNegative() {
			return apperrors.NewValidationError("capital must be >= 0")
		}
		product.Capital = *in.Capital
	}

	if in.Ingredients != nil {
		if err := s.checkRefs(ctx, model.KindIngredient, "ingredients", in.Ingredients, true); err != nil {
			return err
		}
		product.Ingredients = in.Ingredients
	}
	if in.Packaging != nil {
		if err := s.checkRefs(ctx, model.KindPackaging, "packaging", in.Packaging, true); err != nil {
			return err
		}
		product.Packaging = in.Packaging
	}
	if in.Tools != nil {
		if err := s.checkRefs(ctx, model.KindTool, "tools", in.Tools, false); err != nil {
			return err
		}
		product.Tools = in.Tools
	}

	if in.Image != nil {
		product.Image = *in.Image
	}
	if in.ImagePublicID != nil {
		product.ImagePublicID = *in.ImagePublicID
	}
	return nil
}

// checkRefs validates quantities and that every reference names an existing
// catalog item of kind.
func (s *productService) checkRefs(ctx context.Context, kind model.CatalogKind, field string, refs []model.ItemRef, qtyRequired bool) error {
	for i, ref := range refs {
		if ref.Item == uuid.Nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s[%d]: item is required", field, i))
		}
		if ref.Qty == nil {
			if qtyRequired {
				return apperrors.NewValidationError(fmt.Sprintf("%s[%d]: qty is required", field, i))
			}
			continue
		}
		if *ref.Qty < 1 {
			return apperrors.NewValidationError(fmt.Sprintf("%s[%d]: qty must be >= 1", field, i))
		}
	}
	if len(refs) == 0 {
		return nil
	}

	ids := refIDs(refs)
	items, err := s.catalog.FindByIDs(ctx, kind, ids)
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	found := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		found[item.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return apperrors.NewValidationError(fmt.Sprintf("%s: %s is not a known %s", field, id, kind))
		}
	}
	return nil
}

// refIDs returns the distinct item ids in order of first appearance.
func refIDs(refs []model.ItemRef) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.Item]; ok {
			continue
		}
		seen[ref.Item] = struct{}{}
		ids = append(ids, ref.Item)
	}
	return ids
}

// Delete removes the image first, then the product and its stars.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, product.ImagePublicID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *productService) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*model.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.products.SetVerified(ctx, id, verified); err != nil {
		return nil, fmt.Errorf("set verified: %w", err)
	}
	product.IsVerified = verified
	return product, nil
}
