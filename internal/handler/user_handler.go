package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/middleware"
	"jualapa/internal/model"
	"jualapa/internal/repository"
	"jualapa/internal/service"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	authService service.AuthService
	userService service.UserService
	cookies     auth.CookieOptions
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService service.AuthService, userService service.UserService, cookies auth.CookieOptions) *UserHandler {
	return &UserHandler{authService: authService, userService: userService, cookies: cookies}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateProfileRequest carries optional profile changes.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3"`
	Bio      *string `json:"bio" validate:"omitempty,max=300"`
}

// ChangePasswordRequest replaces the password of a local account.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UpdatePictureRequest points the profile at an uploaded image.
type UpdatePictureRequest struct {
	Picture  string `json:"picture" validate:"required"`
	PublicID string `json:"public_id" validate:"required"`
}

// StarRequest names the product to star.
type StarRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates an unverified account and emails a verification link.
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	return h.register(c, model.RoleUser)
}

// CreateAdmin godoc
// @Summary Register a new admin
// @Tags users
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/create-admin [post]
func (h *UserHandler) CreateAdmin(c echo.Context) error {
	return h.register(c, model.RoleAdmin)
}

func (h *UserHandler) register(c echo.Context, role model.Role) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, Response{
		Message: "user created, please verify your email",
		Data:    echo.Map{"email": user.Email},
	})
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param role query string false "user or admin"
// @Param is_verified query bool false "Verification filter"
// @Success 200 {object} service.UserPage
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	filter := repository.UserFilter{Page: pageFromQuery(c)}
	if role := c.QueryParam("role"); role != "" {
		if role != string(model.RoleUser) && role != string(model.RoleAdmin) {
			return apperrors.NewValidationError("role must be 'user' or 'admin'")
		}
		filter.Role = model.Role(role)
	}
	verified, err := optionalBool(c, "is_verified")
	if err != nil {
		return err
	}
	filter.IsVerified = verified

	page, err := h.userService.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security SessionCookie
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{Data: middleware.Identity(c)})
}

// GetUser godoc
// @Summary Get a user with their starred products
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Success 200 {object} Response
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: detail})
}

// UpdateProfile godoc
// @Summary Update username or bio
// @Tags users
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.userService.UpdateProfile(c.Request().Context(), id, service.ProfileUpdate{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "profile updated", Data: user})
}

// ChangePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param request body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.userService.ChangePassword(c.Request().Context(), id, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "password updated"})
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Deleting your own account also clears the session cookie.
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Success 200 {object} Response
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.userService.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	if caller := middleware.Identity(c); caller != nil && caller.ID == id {
		c.SetCookie(auth.ClearedSessionCookie(h.cookies))
	}
	return c.JSON(http.StatusOK, Response{Message: "user deleted"})
}

// UpdatePicture godoc
// @Summary Replace the profile picture
// @Tags users
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param request body UpdatePictureRequest true "Uploaded image"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id}/picture [put]
func (h *UserHandler) UpdatePicture(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePictureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.userService.UpdatePicture(c.Request().Context(), id, media.Asset{URL: req.Picture, PublicID: req.PublicID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{
		Message: "profile picture updated",
		Data:    media.Asset{URL: user.Picture, PublicID: user.ImagePublicID},
	})
}

// StarProduct godoc
// @Summary Star a product
// @Tags users
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param request body StarRequest true "Product to star"
// @Success 201 {object} Response
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id}/starred [post]
func (h *UserHandler) StarProduct(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req StarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	productID := uuid.MustParse(req.ProductID)
	if err := h.userService.StarProduct(c.Request().Context(), id, productID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, Response{Message: "product starred"})
}

// UnstarProduct godoc
// @Summary Remove a star
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param productId path string true "Product ID"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/starred/{productId} [delete]
func (h *UserHandler) UnstarProduct(c echo.Context) error {
	id, productID, err := h.starParams(c)
	if err != nil {
		return err
	}
	if err := h.userService.UnstarProduct(c.Request().Context(), id, productID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "product unstarred"})
}

// IsStarred godoc
// @Summary Check whether a product is starred
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param id path string true "User ID"
// @Param productId path string true "Product ID"
// @Success 200 {object} Response
// @Router /users/{id}/starred/{productId} [get]
func (h *UserHandler) IsStarred(c echo.Context) error {
	id, productID, err := h.starParams(c)
	if err != nil {
		return err
	}
	starred, err := h.userService.IsStarred(c.Request().Context(), id, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Data: echo.Map{"is_starred": starred}})
}

func (h *UserHandler) starParams(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, productID, nil
}
