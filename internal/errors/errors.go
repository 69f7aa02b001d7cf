package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when registering an email that is already taken.
	ErrUserAlreadyExists = errors.New("user already registered and verified")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned when logging in before confirming the email.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrWrongLoginMethod is returned when a Google account tries the password login.
	ErrWrongLoginMethod = errors.New("this account signs in with Google")
	// ErrFederatedAccount is returned for password operations on a Google account.
	ErrFederatedAccount = errors.New("account signs in with Google and has no password")
	// ErrEmailRegisteredLocally is returned when a Google login matches a password account.
	ErrEmailRegisteredLocally = errors.New("email is registered with a password, log in with email and password")
	// ErrOldPasswordMismatch is returned when a password change supplies the wrong current password.
	ErrOldPasswordMismatch = errors.New("old password is incorrect")
	// ErrAlreadyVerified is returned when re-sending verification to a verified account.
	ErrAlreadyVerified = errors.New("user already verified")
	// ErrTokenNotFound is returned when no user holds the one-time token.
	ErrTokenNotFound = errors.New("invalid or already used link")
	// ErrTokenExpired is returned when the one-time token is past its expiry.
	ErrTokenExpired = errors.New("link expired")

	// ErrUnauthenticated is returned when no valid session is present.
	ErrUnauthenticated = errors.New("no valid session, please log in")
	// ErrIdentityGone is returned when a valid session names a deleted user.
	ErrIdentityGone = errors.New("user not found, please log in again")
	// ErrForbidden is returned when the caller may not act on the target.
	ErrForbidden = errors.New("forbidden")
	// ErrAdminUndeletable is returned when deleting an admin account.
	ErrAdminUndeletable = errors.New("admin accounts cannot be deleted")

	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCatalogItemNotFound is returned when an ingredient, packaging or tool is not found.
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	// ErrAlreadyStarred is returned when starring a product twice.
	ErrAlreadyStarred = errors.New("product already starred")
	// ErrNotStarred is returned when unstarring a product that is not starred.
	ErrNotStarred = errors.New("product is not starred")

	// ErrMediaStore is returned when the media store fails.
	ErrMediaStore = errors.New("media store failure")
	// ErrEmailDelivery is returned when an email cannot be sent.
	ErrEmailDelivery = errors.New("failed to send email")
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("too many requests, slow down")
)

// ValidationError carries a user-facing message about bad input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var statusByError = []struct {
	err    error
	status int
	code   string
}{
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrEmailNotVerified, http.StatusUnauthorized, "EMAIL_NOT_VERIFIED"},
	{ErrWrongLoginMethod, http.StatusUnauthorized, "WRONG_LOGIN_METHOD"},
	{ErrFederatedAccount, http.StatusForbidden, "FEDERATED_ACCOUNT"},
	{ErrEmailRegisteredLocally, http.StatusConflict, "EMAIL_REGISTERED_LOCALLY"},
	{ErrOldPasswordMismatch, http.StatusBadRequest, "OLD_PASSWORD_MISMATCH"},
	{ErrAlreadyVerified, http.StatusBadRequest, "ALREADY_VERIFIED"},
	{ErrTokenNotFound, http.StatusBadRequest, "TOKEN_INVALID"},
	{ErrTokenExpired, http.StatusBadRequest, "TOKEN_EXPIRED"},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{ErrIdentityGone, http.StatusUnauthorized, "IDENTITY_GONE"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrAdminUndeletable, http.StatusForbidden, "ADMIN_UNDELETABLE"},
	{ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{ErrCatalogItemNotFound, http.StatusNotFound, "CATALOG_ITEM_NOT_FOUND"},
	{ErrAlreadyStarred, http.StatusConflict, "ALREADY_STARRED"},
	{ErrNotStarred, http.StatusBadRequest, "NOT_STARRED"},
	{ErrMediaStore, http.StatusInternalServerError, "MEDIA_STORE_ERROR"},
	{ErrEmailDelivery, http.StatusInternalServerError, "EMAIL_DELIVERY_FAILED"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return NewHTTPError(http.StatusBadRequest, validationErr.Message, "VALIDATION_ERROR")
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
