package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/model"
)

func newTestTokens(users *memUserRepo, now *time.Time, tokens ...string) *OneTimeTokens {
	t := NewOneTimeTokens(users)
	t.now = func() time.Time { return *now }
	t.generate = func() (string, error) {
		if len(tokens) == 0 {
			return "", errors.New("entropy exhausted")
		}
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}
	return t
}

func TestOneTimeTokens_MintReplacesPendingToken(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	require.NoError(t, users.Create(ctx, &model.User{Username: "ana", Email: "ana@x.com", Password: "secret1"}))

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokens(users, &now, "first", "second")

	first, user, err := tokens.Mint(ctx, "ana@x.com", VerificationTokenTTL)
	require.NoError(t, err)
	assert.Equal(t, "first", first)
	require.NotNil(t, user.TokenExpires)
	assert.Equal(t, now.Add(24*time.Hour), *user.TokenExpires)

	second, _, err := tokens.Mint(ctx, "ana@x.com", ResetTokenTTL)
	require.NoError(t, err)

	_, err = tokens.Consume(ctx, first)
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	got, err := tokens.Consume(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", got.Email)
	assert.Equal(t, now.Add(15*time.Minute), *got.TokenExpires)
}

func TestOneTimeTokens_MintUnknownEmail(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(newMemUserRepo(), &now, "tok")

	_, _, err := tokens.Mint(context.Background(), "nobody@x.com", ResetTokenTTL)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestOneTimeTokens_Consume(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	require.NoError(t, users.Create(ctx, &model.User{Username: "ana", Email: "ana@x.com", Password: "secret1"}))

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokens(users, &now, "tok")
	_, _, err := tokens.Mint(ctx, "ana@x.com", ResetTokenTTL)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		advance time.Duration
		wantErr error
	}{
		{"empty token", "", 0, apperrors.ErrTokenNotFound},
		{"unknown token", "nope", 0, apperrors.ErrTokenNotFound},
		{"valid", "tok", 14 * time.Minute, nil},
		{"expired", "tok", 2 * time.Minute, apperrors.ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)
			user, err := tokens.Consume(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ana@x.com", user.Email)
		})
	}
}

func TestOneTimeTokens_GenerateFailure(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	require.NoError(t, users.Create(ctx, &model.User{Username: "ana", Email: "ana@x.com", Password: "secret1"}))

	now := time.Now()
	tokens := newTestTokens(users, &now)

	_, _, err := tokens.Mint(ctx, "ana@x.com", ResetTokenTTL)
	assert.ErrorContains(t, err, "entropy exhausted")

	stored, err := users.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Nil(t, stored.TokenVerify)
}

func TestOneTimeTokens_SpendOnlyOnce(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	require.NoError(t, users.Create(ctx, &model.User{Username: "ana", Email: "ana@x.com", Password: "secret1", IsVerified: true}))

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokens(users, &now, "tok")
	_, _, err := tokens.Mint(ctx, "ana@x.com", ResetTokenTTL)
	require.NoError(t, err)

	// Both requests read the token before either writes.
	first, err := tokens.Consume(ctx, "tok")
	require.NoError(t, err)
	second, err := tokens.Consume(ctx, "tok")
	require.NoError(t, err)

	first.Password = "first-pass"
	require.NoError(t, tokens.Spend(ctx, first, "tok"))

	second.Password = "second-pass"
	assert.ErrorIs(t, tokens.Spend(ctx, second, "tok"), apperrors.ErrTokenNotFound)

	stored, err := users.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Nil(t, stored.TokenVerify)
	assert.Equal(t, first.PasswordHash, stored.PasswordHash)
}
