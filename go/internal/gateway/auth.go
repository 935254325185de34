package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mcdev12/jokenpo/go/internal/models"
)

const tokenCookie = "token"

var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a request to a player identity.
type Authenticator interface {
	Authenticate(r *http.Request) (models.Identity, error)
}

// Claims is the session token body issued by the account service.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 session tokens. It never issues them.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

// Authenticate reads the token from the "token" query parameter, the
// "token" cookie or an Authorization bearer header, in that order.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (models.Identity, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return models.Identity{}, fmt.Errorf("%w: no token", ErrUnauthenticated)
	}
	return a.ParseToken(raw)
}

// ParseToken validates raw and returns the identity it carries.
func (a *JWTAuthenticator) ParseToken(raw string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.UserID <= 0 || claims.Username == "" {
		return models.Identity{}, fmt.Errorf("%w: incomplete claims", ErrUnauthenticated)
	}
	return models.Identity{ID: claims.UserID, Username: claims.Username}, nil
}

func tokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get(tokenCookie); t != "" {
		return t
	}
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
