package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the displayable part of the backend's access token.
type Claims struct {
	Subject   string     `json:"sub" yaml:"sub"`
	Role      string     `json:"role" yaml:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Inspect decodes the token payload without verifying its signature.
// The result is informational; expiry is only ever discovered through a rejected request.
func Inspect(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}

	out := Claims{Subject: tc.Subject, Role: tc.Role}
	if tc.ExpiresAt != nil {
		exp := tc.ExpiresAt.Time.UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}
