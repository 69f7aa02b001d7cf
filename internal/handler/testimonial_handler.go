package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"jualapa/internal/service"
)

// TestimonialHandler handles testimonial endpoints.
type TestimonialHandler struct {
	testimonialService service.TestimonialService
}

// NewTestimonialHandler creates a new testimonial handler.
func NewTestimonialHandler(testimonialService service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{testimonialService: testimonialService}
}

// TestimonialRequest represents a new testimonial.
type TestimonialRequest struct {
	Name    string `json:"name" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Picture string `json:"picture" validate:"required"`
}

// ListTestimonials godoc
// @Summary Latest testimonials
// @Tags testimonials
// @Produce json
// @Param limit query int false "Number of testimonials"
// @Success 200 {object} Response
// @Router /testimonials [get]
func (h *TestimonialHandler) ListTestimonials(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.testimonialService.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: items})
}

// CreateTestimonial godoc
// @Summary Add a testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Param request body TestimonialRequest true "Testimonial"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Router /testimonials [post]
func (h *TestimonialHandler) CreateTestimonial(c echo.Context) error {
	var req TestimonialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	t, err := h.testimonialService.Create(c.Request().Context(), req.Name, req.Text, req.Picture)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, Response{Message: "testimonial created", Data: t})
}
