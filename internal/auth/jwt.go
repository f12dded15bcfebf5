package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isdelr/webempresa/internal/models"
)

// Claims defines the JWT claims structure. The subject is the username.
type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Tokenizer issues and validates HS256 access tokens.
type Tokenizer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenizer creates a Tokenizer signing with secret. Tokens live for ttl.
func NewTokenizer(secret string, ttl time.Duration) *Tokenizer {
	return &Tokenizer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *Tokenizer) TTL() time.Duration {
	return t.ttl
}

// GenerateJWT creates a new JWT for a given user.
func (t *Tokenizer) GenerateJWT(user models.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID:  user.ID,
		IsAdmin: user.Admin(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// ValidateJWT parses and validates a JWT string.
func (t *Tokenizer) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no user_id")
	}
	return claims, nil
}
