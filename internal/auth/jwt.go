// Package auth provides JWT issuance and Echo middleware for request auth.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 JWT for the given user id.
func GenerateToken(userID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is required")
	}
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// JWTMiddleware returns the Echo JWT middleware configured with the shared
// secret and an optional skipper for public routes. The token is read from
// the Authorization header, or from the access_token query parameter for
// EventSource clients that cannot set headers.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:     skipper,
		SigningKey:  []byte(secret),
		TokenLookup: "header:Authorization:Bearer ,query:access_token",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return &Claims{}
		},
	})
}

// UserIDFromContext extracts the authenticated user id (JWT subject) from
// the Echo context populated by JWTMiddleware.
func UserIDFromContext(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing auth token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}
	return userID, nil
}
