package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "jualapa/internal/errors"
)

// ErrorHandler is the single place errors become HTTP responses. Only
// server-class failures are logged; detail is exposed in development only.
func ErrorHandler(log *zap.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err, c)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			if development {
				body.Detail = err.Error()
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.Warn("write error response", zap.Error(writeErr))
		}
	}
}

func classify(err error, c echo.Context) (int, apperrors.ErrorResponse) {
	if errors.Is(err, echo.ErrNotFound) {
		return http.StatusNotFound, apperrors.ErrorResponse{
			Error: "URL not found - " + c.Request().URL.Path,
			Code:  "NOT_FOUND",
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if resp, ok := he.Message.(apperrors.ErrorResponse); ok {
			return he.Code, resp
		}
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, apperrors.ErrorResponse{Error: msg, Code: "HTTP_ERROR"}
	}

	httpErr := apperrors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse()
}
