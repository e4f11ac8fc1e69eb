package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller as seen by this service. Ref is the
// opaque identity reference the auth system assigns; Email feeds the
// display-name fallback for lazily created profiles.
type Identity struct {
	Ref   string
	Email string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and extracts the caller's identity.
// Authentication itself lives outside this service; the verifier is only
// the boundary.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for HMAC-signed tokens.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ParseToken validates the signed token and returns the identity it
// carries.
func (v *Verifier) ParseToken(tokenStr string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return nil, fmt.Errorf("token carries no subject")
	}

	return &Identity{Ref: c.Subject, Email: c.Email}, nil
}

// FromRequest extracts the identity from the Authorization header. A
// missing or invalid header yields a nil identity, not an error; callers
// decide whether anonymity is acceptable.
func (v *Verifier) FromRequest(r *http.Request) *Identity {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil
	}

	identity, err := v.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	return identity
}
