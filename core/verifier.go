package core

import (
	"fmt"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength applies to every secret used for signing or sealing
const MinSecretLength = 32

// IdentityVerifier turns the raw identity cookie value into a user ID.
//
// It is the hook for layering a stricter scheme on top of the bearer
// identifier without changing the AuthContext contract.
type IdentityVerifier interface {
	Verify(raw string) (string, error)
}

// Ensure implementations satisfy IdentityVerifier
var (
	_ IdentityVerifier = PassthroughVerifier{}
	_ IdentityVerifier = (*JWTVerifier)(nil)
)

// PassthroughVerifier accepts any non-empty UTF-8 value as the user ID
type PassthroughVerifier struct{}

func (PassthroughVerifier) Verify(raw string) (string, error) {
	if raw == "" || !utf8.ValidString(raw) {
		return "", ErrInvalidIdentity
	}
	return raw, nil
}

// JWTVerifier expects the cookie to hold an HS256 JWT whose subject is the user ID
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, MinSecretLength)
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

func (v *JWTVerifier) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidIdentity
	}

	return claims.Subject, nil
}
