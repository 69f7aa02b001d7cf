package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateSessionToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(SessionTokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
	assert.NotNil(t, claims.IssuedAt)

	got, err := svc.ParseUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	svc := NewJWTService("test-secret")

	expiredSvc := NewJWTService("test-secret")
	expiredSvc.now = func() time.Time { return time.Now().Add(-SessionTokenExpiry - time.Hour) }
	expired, err := expiredSvc.GenerateSessionToken(uuid.New())
	require.NoError(t, err)

	foreign, err := NewJWTService("other-secret").GenerateSessionToken(uuid.New())
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.NewString()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	valid, err := svc.GenerateSessionToken(uuid.New())
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: expired, wantErr: ErrSessionExpired},
		{name: "wrong secret", token: foreign, wantErr: ErrSessionInvalid},
		{name: "malformed", token: "not-a-jwt", wantErr: ErrSessionInvalid},
		{name: "none algorithm", token: unsigned, wantErr: ErrSessionInvalid},
		{name: "tampered signature", token: tampered, wantErr: ErrSessionInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ParseUserID_BadSubject(t *testing.T) {
	svc := NewJWTService("test-secret")
	claims := &Claims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ParseUserID(token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
