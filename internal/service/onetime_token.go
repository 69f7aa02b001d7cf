package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = 15 * time.Minute
)

// OneTimeTokens mints and consumes the single pending token stored on a user.
//
// Verification and reset share the slot, so minting either kind silently
// invalidates an outstanding token of the other kind.
type OneTimeTokens struct {
	users    repository.UserRepository
	now      func() time.Time
	generate func() (string, error)
}

// NewOneTimeTokens creates the token lifecycle over the user repository.
func NewOneTimeTokens(users repository.UserRepository) *OneTimeTokens {
	return &OneTimeTokens{
		users:    users,
		now:      time.Now,
		generate: auth.GenerateOpaqueToken,
	}
}

// Mint finds the user by email and stores a fresh token valid for ttl.
func (t *OneTimeTokens) Mint(ctx context.Context, email string, ttl time.Duration) (string, *model.User, error) {
	user, err := t.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	token, err := t.MintFor(ctx, user, ttl)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// MintFor stores a fresh token on user and persists every pending change of user with it.
func (t *OneTimeTokens) MintFor(ctx context.Context, user *model.User, ttl time.Duration) (string, error) {
	token, err := t.generate()
	if err != nil {
		return "", err
	}
	user.SetOneTimeToken(token, t.now().Add(ttl))
	if err := t.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Consume returns the user holding token. Callers apply their state change to
// the returned user and persist it with Spend.
func (t *OneTimeTokens) Consume(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.ErrTokenNotFound
	}
	user, err := t.users.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	if user.OneTimeTokenExpired(t.now()) {
		return nil, apperrors.ErrTokenExpired
	}
	return user, nil
}

// Spend clears the token slot on user and saves it, provided token is still
// the one stored. Of two requests racing on the same token only one wins; the
// other gets ErrTokenNotFound.
func (t *OneTimeTokens) Spend(ctx context.Context, user *model.User, token string) error {
	user.ClearOneTimeToken()
	if err := t.users.UpdateConsumingToken(ctx, user, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTokenNotFound
		}
		return err
	}
	return nil
}
