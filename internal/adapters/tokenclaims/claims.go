// Package tokenclaims reads claims from the admin bearer token without verifying its signature.
// The backend remains the authority on token validity; these claims only drive session lifetime.
package tokenclaims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// ErrNotJWT is returned when the token is not a compact JWS.
var ErrNotJWT = errors.New("token is not a JWT")

var signatureAlgorithms = []jose.SignatureAlgorithm{
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.EdDSA,
}

// Claims are the registered claims read from an admin token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Parse decodes the token payload. Zero times mean the claim was absent.
func Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	parsed, err := jwt.ParseSigned(token, signatureAlgorithms)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}

	var std jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&std); err != nil {
		return Claims{}, fmt.Errorf("decode token claims: %w", err)
	}

	out := Claims{Subject: std.Subject}
	if std.Expiry != nil {
		out.ExpiresAt = std.Expiry.Time().UTC()
	}
	if std.IssuedAt != nil {
		out.IssuedAt = std.IssuedAt.Time().UTC()
	}
	return out, nil
}

// Expiry returns the exp claim, or false when the token carries none or cannot be decoded.
func Expiry(token string) (time.Time, bool) {
	c, err := Parse(token)
	if err != nil || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}
