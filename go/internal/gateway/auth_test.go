package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims(id int64, name string) Claims {
	return Claims{
		UserID:   id,
		Username: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTAuthenticator_ParseToken(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret)

	expired := validClaims(1, "alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(1, "alice")).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    models.Identity
		wantErr bool
	}{
		{name: "valid", token: signToken(t, testSecret, validClaims(1, "alice")), want: models.Identity{ID: 1, Username: "alice"}},
		{name: "wrong secret", token: signToken(t, "other", validClaims(1, "alice")), wantErr: true},
		{name: "expired", token: signToken(t, testSecret, expired), wantErr: true},
		{name: "missing username", token: signToken(t, testSecret, validClaims(1, "")), wantErr: true},
		{name: "missing user id", token: signToken(t, testSecret, validClaims(0, "alice")), wantErr: true},
		{name: "alg none", token: noneToken, wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.ParseToken(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTAuthenticator_TokenSources(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret)
	tok := signToken(t, testSecret, validClaims(42, "zoe"))

	tests := []struct {
		name  string
		build func() *http.Request
	}{
		{name: "query", build: func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil)
		}},
		{name: "cookie", build: func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.AddCookie(&http.Cookie{Name: "token", Value: tok})
			return r
		}},
		{name: "bearer", build: func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Header.Set("Authorization", "Bearer "+tok)
			return r
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Authenticate(tt.build())
			require.NoError(t, err)
			assert.Equal(t, models.Identity{ID: 42, Username: "zoe"}, id)
		})
	}

	_, err := auth.Authenticate(httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
