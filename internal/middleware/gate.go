// Package middleware holds the request gates shared by the route table.
package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/model"
)

const (
	sessionKey  = "session_user_id"
	identityKey = "identity"
)

// UserResolver loads users by id. repository.UserRepository satisfies it.
type UserResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Gate decides who may reach a route. Gates never mutate state.
type Gate struct {
	jwt   *auth.JWTService
	users UserResolver
}

// NewGate creates a Gate.
func NewGate(jwt *auth.JWTService, users UserResolver) *Gate {
	return &Gate{jwt: jwt, users: users}
}

// Identity returns the user attached by Authenticated, or nil.
func Identity(c echo.Context) *model.User {
	u, _ := c.Get(identityKey).(*model.User)
	return u
}

// Authenticated requires a valid session cookie naming an existing user.
func (g *Gate) Authenticated() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + auth.SessionCookieName,
		ContextKey:  sessionKey,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return g.jwt.ParseUserID(token)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return apperrors.ErrUnauthenticated
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(g.resolveIdentity(next))
	}
}

// resolveIdentity re-loads the session's user; a signed token alone does not
// prove the account still exists.
func (g *Gate) resolveIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := c.Get(sessionKey).(uuid.UUID)
		if !ok {
			return apperrors.ErrUnauthenticated
		}
		user, err := g.users.FindByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrIdentityGone
			}
			return err
		}
		c.Set(identityKey, user)
		return next(c)
	}
}

// AdminOnly requires an admin identity. It must run after Authenticated.
func (g *Gate) AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := Identity(c)
			if user == nil {
				return apperrors.ErrUnauthenticated
			}
			if !user.IsAdmin() {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}

// SelfOrAdmin requires the path parameter param to name an existing user that
// is either the caller or anyone when the caller is an admin. The target is
// resolved before ownership is checked. It must run after Authenticated.
func (g *Gate) SelfOrAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := Identity(c)
			if caller == nil {
				return apperrors.ErrUnauthenticated
			}

			targetID, err := uuid.Parse(c.Param(param))
			if err != nil {
				return apperrors.NewValidationError("invalid user id")
			}
			target, err := g.users.FindByID(c.Request().Context(), targetID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrUserNotFound
				}
				return err
			}

			if target.ID != caller.ID && !caller.IsAdmin() {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}
