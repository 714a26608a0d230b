// Package auth consumes identities minted by the external auth provider.
// It verifies bearer tokens with the provider's public key; credential
// management (signup, login, token issuance) lives outside this service.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request-context key under which the middleware stores
// verified claims.
const ClaimsKey ctxKey = 1

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type Keys struct {
	verificationKey *rsa.PublicKey
}

func NewKeys(verificationKey *rsa.PublicKey) (*Keys, error) {
	if verificationKey == nil {
		return nil, errors.New("verification key is nil")
	}
	return &Keys{verificationKey: verificationKey}, nil
}

// ParsePublicKey builds Keys from a PEM-encoded RSA public key.
func ParsePublicKey(pem []byte) (*Keys, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing auth public key: %w", err)
	}
	return NewKeys(key)
}

// ValidateToken verifies the signature and standard claims of a bearer token
// issued by the auth provider.
func (k *Keys) ValidateToken(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.verificationKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
