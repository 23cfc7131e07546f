package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrNotJWT = errors.New("token is not a JWT")

// Claims is what the client can learn from a session token without the
// backend's key. Nothing here is verified; use it for display only.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an expiry at or before now.
// Tokens without an exp claim never expire from the client's point of view.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Remaining returns the time left before expiry, or 0 when expired or unknown.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil || c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Inspect decodes the claims of raw without verifying its signature.
// Opaque tokens return ErrNotJWT.
func Inspect(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return nil, ErrNotJWT
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrNotJWT
	}

	claims := &Claims{}
	claims.Subject, _ = mc.GetSubject()
	claims.Issuer, _ = mc.GetIssuer()
	if email, ok := mc["email"].(string); ok {
		claims.Email = email
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		claims.IssuedAt = &t
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	return claims, nil
}
