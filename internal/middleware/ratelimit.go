package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/ratelimit"
)

// RateLimit rejects clients that exceed the limiter's budget. Counter store
// failures are logged and the request is let through.
func RateLimit(limiter *ratelimit.Limiter, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			ok, err := limiter.Allow(c.Request().Context(), "rate_limit:"+ip)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request",
					zap.String("ip", ip),
					zap.Error(err),
				)
			}
			if !ok {
				return apperrors.ErrRateLimited
			}
			return next(c)
		}
	}
}
