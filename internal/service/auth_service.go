package service

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes administrator tokens from any other bearer token the
// identity provider may hand out.
type TokenType string

const (
	TokenTypeAdmin TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
}

// HasPermission reports whether the token grants code.
func (c *Claims) HasPermission(code string) bool {
	return slices.Contains(c.Permissions, code)
}

// AuthService validates bearer tokens issued by the identity provider.
// Tokens are never minted here.
type AuthService struct {
	secret []byte
}

// NewAuthService creates a new AuthService for HMAC-signed tokens.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
