package handler

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     auth.CookieOptions
	frontendURL string
	log         *zap.Logger
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies auth.CookieOptions, frontendURL string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		frontendURL: frontendURL,
		log:         log,
		now:         time.Now,
	}
}

// TokenRequest carries a one-time token from an emailed link.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// EmailRequest carries an email address.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordConfirmRequest sets a new password with a reset token.
type ResetPasswordConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// VerifyEmail godoc
// @Summary Confirm an email address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Verification token"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/email-verify [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.authService.VerifyEmail(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{
		Message: "email verified",
		Data:    echo.Map{"email": user.Email},
	})
}

// ResendVerification godoc
// @Summary Send a new verification email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/email-verify/resend [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{
		Message: "verification email sent",
		Data:    echo.Map{"email": req.Email},
	})
}

// Login godoc
// @Summary Start a session
// @Description Sets the HttpOnly session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/sessions [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	c.SetCookie(auth.SessionCookie(token, h.cookies, h.now()))
	return c.JSON(http.StatusOK, Response{Message: "login successful", Data: user})
}

// Logout godoc
// @Summary End the session
// @Tags auth
// @Produce json
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/sessions [delete]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(auth.ClearedSessionCookie(h.cookies))
	return c.JSON(http.StatusOK, Response{Message: "logout successful"})
}

// GoogleLogin godoc
// @Summary Redirect to the Google consent page
// @Description Sets a short-lived oauth_state cookie that the callback must match.
// @Tags auth
// @Success 302
// @Router /auth/google [get]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	state, err := auth.GenerateOpaqueToken()
	if err != nil {
		return err
	}
	c.SetCookie(auth.OAuthStateCookie(state, h.cookies, h.now()))
	return c.Redirect(http.StatusFound, h.authService.GoogleAuthURL(state))
}

// GoogleCallback godoc
// @Summary Complete Google sign-in
// @Description Always redirects to the front end login page with status and message query parameters.
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "State issued by /auth/google"
// @Success 302
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	c.SetCookie(auth.ClearedOAuthStateCookie(h.cookies))
	if !validOAuthState(c) {
		return c.Redirect(http.StatusFound, h.loginRedirect("failed", "sign-in request expired or was not started here, please try again"))
	}

	token, _, err := h.authService.LoginWithGoogle(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return c.Redirect(http.StatusFound, h.loginRedirect("failed", h.callbackFailure(c, err)))
	}
	c.SetCookie(auth.SessionCookie(token, h.cookies, h.now()))
	return c.Redirect(http.StatusFound, h.loginRedirect("success", "login successful"))
}

func validOAuthState(c echo.Context) bool {
	cookie, err := c.Cookie(auth.OAuthStateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(c.QueryParam("state"))) == 1
}

func (h *AuthHandler) callbackFailure(c echo.Context, err error) string {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode < http.StatusInternalServerError {
		return httpErr.Message
	}
	h.log.Error("google sign-in failed",
		zap.Error(err),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
	return "something went wrong while signing in with Google"
}

func (h *AuthHandler) loginRedirect(status, message string) string {
	q := url.Values{}
	q.Set("provider", "google")
	q.Set("status", status)
	q.Set("message", message)
	return h.frontendURL + "/auth/login?" + q.Encode()
}

// RequestPasswordReset godoc
// @Summary Email a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "password reset link sent"})
}

// ValidateResetToken godoc
// @Summary Check a password reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Reset token"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/reset-password/validate [post]
func (h *AuthHandler) ValidateResetToken(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ValidateResetToken(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "token is valid"})
}

// ConfirmPasswordReset godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordConfirmRequest true "Token and new password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/reset-password/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req ResetPasswordConfirmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ConfirmPasswordReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Message: "password updated"})
}
