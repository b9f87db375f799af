package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

	assert.True(t, VerifyPassword("s3cret!", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret!", "not-a-hash"))
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	require.ErrorIs(t, err, common.ErrMissingConfig)

	issuer, err := NewTokenIssuer("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)

	_, err = issuer.Issue("")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	other, err := NewTokenIssuer("different", time.Hour)
	require.NoError(t, err)

	expired, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-42"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		issuer *TokenIssuer
		name   string
		token  string
	}{
		{name: "wrong secret", issuer: other, token: token},
		{name: "expired", issuer: expired, token: token},
		{name: "alg none", issuer: issuer, token: unsigned},
		{name: "no expiry", issuer: issuer, token: noExpiry},
		{name: "garbage", issuer: issuer, token: "not.a.token"},
		{name: "empty", issuer: issuer, token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Verify(tt.token)
			require.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "bearer", header: "Bearer abc.def", want: "abc.def", ok: true},
		{name: "missing", header: ""},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
