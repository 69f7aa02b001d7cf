package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"jualapa/internal/model"
	"jualapa/internal/service"
)

// CatalogHandler serves one catalog kind. The ingredient, packaging and tool
// routes each get their own instance.
type CatalogHandler struct {
	catalogService service.CatalogService
	kind           model.CatalogKind
}

// NewCatalogHandler creates a handler bound to kind.
func NewCatalogHandler(catalogService service.CatalogService, kind model.CatalogKind) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, kind: kind}
}

// CatalogRequest is the body of a catalog create or partial update.
type CatalogRequest struct {
	Name          *string          `json:"name"`
	Amount        *string          `json:"amount"`
	Price         *decimal.Decimal `json:"price" swaggertype:"number"`
	Image         *string          `json:"image"`
	ImagePublicID *string          `json:"image_public_id"`
}

func (r CatalogRequest) input() service.CatalogInput {
	return service.CatalogInput{
		Name:          r.Name,
		Amount:        r.Amount,
		Price:         r.Price,
		Image:         r.Image,
		ImagePublicID: r.ImagePublicID,
	}
}

// List godoc
// @Summary List catalog items
// @Description Served at /ingredients, /packages and /tools.
// @Tags catalog
// @Produce json
// @Param q query string false "Name contains"
// @Success 200 {object} Response
// @Router /ingredients [get]
// @Router /packages [get]
// @Router /tools [get]
func (h *CatalogHandler) List(c echo.Context) error {
	items, err := h.catalogService.List(c.Request().Context(), h.kind, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: items})
}

// Get godoc
// @Summary Get a catalog item
// @Tags catalog
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} Response
// @Failure 404 {object} errors.ErrorResponse
// @Router /ingredients/{id} [get]
// @Router /packages/{id} [get]
// @Router /tools/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.catalogService.Get(c.Request().Context(), h.kind, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: item})
}

// Create godoc
// @Summary Create a catalog item
// @Tags catalog
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param request body CatalogRequest true "Item"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /ingredients [post]
// @Router /packages [post]
// @Router /tools [post]
func (h *CatalogHandler) Create(c echo.Context) error {
	var req CatalogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.catalogService.Create(c.Request().Context(), h.kind, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, Response{Message: string(h.kind) + " created", Data: item})
}

// Update godoc
// @Summary Update a catalog item
// @Tags catalog
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "Item ID"
// @Param request body CatalogRequest true "Fields to change"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /ingredients/{id} [put]
// @Router /packages/{id} [put]
// @Router /tools/{id} [put]
func (h *CatalogHandler) Update(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req CatalogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.catalogService.Update(c.Request().Context(), h.kind, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: string(h.kind) + " updated", Data: item})
}

// Delete godoc
// @Summary Delete a catalog item
// @Tags catalog
// @Produce json
// @Security SessionCookie
// @Param id path string true "Item ID"
// @Success 200 {object} Response
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /ingredients/{id} [delete]
// @Router /packages/{id} [delete]
// @Router /tools/{id} [delete]
func (h *CatalogHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalogService.Delete(c.Request().Context(), h.kind, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: string(h.kind) + " deleted"})
}
