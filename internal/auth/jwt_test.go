package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars"

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer(testSecret, DefaultTokenTTL)
}

func TestTokenIssuer_Issue_Success(t *testing.T) {
	issuer := newTestIssuer()

	token, expiresAt, err := issuer.Issue("admin-123", RoleSuperAdmin)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, time.Minute)
}

func TestTokenIssuer_Verify_RoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, _, err := issuer.Issue("admin-123", RoleManager)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, "admin-123", claims.ID)
	assert.Equal(t, RoleManager, claims.Role)
	assert.Equal(t, "admin-123", claims.Subject)
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 0)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}

func TestTokenIssuer_Verify_ValidAt29DaysExpiredAt31(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := issuedAt
	issuer := newTestIssuer().WithClock(func() time.Time { return now })

	token, _, err := issuer.Issue("admin-1", RoleAdmin)
	require.NoError(t, err)

	now = issuedAt.Add(29 * 24 * time.Hour)
	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.ID)

	now = issuedAt.Add(31 * 24 * time.Hour)
	claims, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_Verify_Invalid(t *testing.T) {
	issuer := newTestIssuer()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenIssuer_Verify_WrongSignature(t *testing.T) {
	issuer1 := NewTokenIssuer("secret-key-1-secret-key-1-secret-key-1", DefaultTokenTTL)
	issuer2 := NewTokenIssuer("secret-key-2-secret-key-2-secret-key-2", DefaultTokenTTL)

	token, _, err := issuer1.Issue("admin-123", RoleSuperAdmin)
	require.NoError(t, err)

	claims, err := issuer2.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_Verify_WrongAlgorithm(t *testing.T) {
	issuer := newTestIssuer()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		ID:   "admin-123",
		Role: RoleSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := issuer.Verify(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_Verify_OtherHMACRejected(t *testing.T) {
	issuer := newTestIssuer()

	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		t.Run(method.Alg(), func(t *testing.T) {
			token := jwt.NewWithClaims(method, &Claims{
				ID:   "admin-123",
				Role: RoleSuperAdmin,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			})
			tokenString, err := token.SignedString([]byte(testSecret))
			require.NoError(t, err)

			claims, err := issuer.Verify(tokenString)

			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenIssuer_Verify_MissingExpiry(t *testing.T) {
	issuer := newTestIssuer()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{ID: "admin-123", Role: RoleAdmin})
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := issuer.Verify(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_Verify_MissingID(t *testing.T) {
	issuer := newTestIssuer()

	token, _, err := issuer.Issue("", RoleAdmin)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
