package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
)

// MaxUploadSize caps a single image upload.
const MaxUploadSize = 5 << 20

// MediaHandler accepts image uploads and hands back the asset handle that
// product, catalog and profile updates reference.
type MediaHandler struct {
	store media.Store
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload godoc
// @Summary Upload an image
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security SessionCookie
// @Param file formData file true "Image, at most 5 MiB"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /media [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required")
	}
	if fh.Size > MaxUploadSize {
		return apperrors.NewValidationError("file must be at most 5 MiB")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// Sniff instead of trusting the client's Content-Type.
	head := make([]byte, 512)
	n, _ := f.Read(head)
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return apperrors.NewValidationError("file must be an image")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	asset, err := h.store.Upload(c.Request().Context(), media.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
	}
	return c.JSON(http.StatusCreated, Response{Message: "file uploaded", Data: asset})
}
