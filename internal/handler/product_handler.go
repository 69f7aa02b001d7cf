package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/middleware"
	"jualapa/internal/model"
	"jualapa/internal/repository"
	"jualapa/internal/service"
)

// ProductHandler handles product endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest is the body of a product create or partial update.
// Omitted fields are left unchanged on update.
type ProductRequest struct {
	Title                 *string          `json:"title"`
	Category              *string          `json:"category"`
	Tags                  []string         `json:"tags"`
	Steps                 []string         `json:"steps"`
	Tips                  []string         `json:"tips"`
	Ingredients           []model.ItemRef  `json:"ingredients"`
	Packaging             []model.ItemRef  `json:"packaging"`
	Tools                 []model.ItemRef  `json:"tools"`
	EstimatedSellingPrice *decimal.Decimal `json:"estimated_selling_price" swaggertype:"number"`
	ProductionYield       *int             `json:"production_yield"`
	DailySalesTarget      *int             `json:"daily_sales_target"`
	Capital               *decimal.Decimal `json:"capital" swaggertype:"number"`
	Image                 *string          `json:"image"`
	ImagePublicID         *string          `json:"image_public_id"`
}

func (r ProductRequest) input() service.ProductInput {
	in := service.ProductInput{
		Title:                 r.Title,
		Tags:                  r.Tags,
		Steps:                 r.Steps,
		Tips:                  r.Tips,
		Ingredients:           r.Ingredients,
		Packaging:             r.Packaging,
		Tools:                 r.Tools,
		EstimatedSellingPrice: r.EstimatedSellingPrice,
		ProductionYield:       r.ProductionYield,
		DailySalesTarget:      r.DailySalesTarget,
		Capital:               r.Capital,
		Image:                 r.Image,
		ImagePublicID:         r.ImagePublicID,
	}
	if r.Category != nil {
		category := model.Category(*r.Category)
		in.Category = &category
	}
	return in
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Title contains"
// @Param category query string false "food or drink"
// @Param max_capital query number false "Maximum capital"
// @Param created_by query string false "Author ID"
// @Param is_verified query bool false "Verification filter"
// @Param sort query string false "popularity, stars or capital"
// @Param order query string false "asc or desc, asc when sort is given"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} service.ProductPage
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		return err
	}
	page, err := h.productService.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func productFilterFromQuery(c echo.Context) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Query: strings.TrimSpace(c.QueryParam("q")),
		Sort:  c.QueryParam("sort"),
		Page:  pageFromQuery(c),
	}
	if !repository.ValidProductSort(filter.Sort) {
		return filter, apperrors.NewValidationError("sort must be one of popularity, stars, capital")
	}
	// An explicit sort defaults to ascending; the unsorted listing stays newest first.
	switch c.QueryParam("order") {
	case "":
		filter.Ascending = filter.Sort != repository.SortNewest
	case "desc":
	case "asc":
		filter.Ascending = true
	default:
		return filter, apperrors.NewValidationError("order must be 'asc' or 'desc'")
	}

	if raw := c.QueryParam("category"); raw != "" {
		category := model.Category(strings.ToLower(raw))
		if category != model.CategoryFood && category != model.CategoryDrink {
			return filter, apperrors.NewValidationError("category must be 'food' or 'drink'")
		}
		filter.Category = category
	}
	if raw := c.QueryParam("max_capital"); raw != "" {
		capital, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("max_capital must be a number")
		}
		filter.MaxCapital = &capital
	}
	if raw := c.QueryParam("created_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid created_by")
		}
		filter.CreatedBy = &id
	}
	verified, err := optionalBool(c, "is_verified")
	if err != nil {
		return filter, err
	}
	filter.Verified = verified
	return filter, nil
}

// GetProduct godoc
// @Summary Get a product
// @Description Counts one view and resolves catalog references.
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} Response
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: detail})
}

// CreateProduct godoc
// @Summary Create a product
// @Description The product starts unverified and is owned by the caller.
// @Tags products
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param request body ProductRequest true "Product"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	caller := middleware.Identity(c)
	if caller == nil {
		return apperrors.ErrUnauthenticated
	}
	product, err := h.productService.Create(c.Request().Context(), caller.ID, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, Response{Message: "product created", Data: product})
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Fields to change"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.productService.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "product updated", Data: product})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security SessionCookie
// @Param id path string true "Product ID"
// @Success 200 {object} Response
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.productService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "product deleted"})
}

// VerifyProduct godoc
// @Summary Mark a product verified
// @Tags products
// @Produce json
// @Security SessionCookie
// @Param id path string true "Product ID"
// @Success 200 {object} Response
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/verify [patch]
func (h *ProductHandler) VerifyProduct(c echo.Context) error {
	return h.setVerified(c, true)
}

// UnverifyProduct godoc
// @Summary Mark a product unverified
// @Tags products
// @Produce json
// @Security SessionCookie
// @Param id path string true "Product ID"
// @Success 200 {object} Response
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/unverify [patch]
func (h *ProductHandler) UnverifyProduct(c echo.Context) error {
	return h.setVerified(c, false)
}

func (h *ProductHandler) setVerified(c echo.Context, verified bool) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	product, err := h.productService.SetVerified(c.Request().Context(), id, verified)
	if err != nil {
		return err
	}
	msg := "product unverified"
	if verified {
		msg = "product verified"
	}
	return c.JSON(http.StatusOK, Response{Message: msg, Data: product})
}
