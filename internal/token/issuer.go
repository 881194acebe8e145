package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints and validates HS256-signed bearer tokens carrying the subject
// user id and an absolute expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer. The secret comes from configuration and
// is never read from ambient state.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Mint signs a token for the subject with expiry now + ttl.
func (i *Issuer) Mint(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token, returning the subject. It fails
// closed: malformed, forged, and expired tokens all yield ok=false with no
// distinction, so callers uniformly treat them as unauthenticated.
func (i *Issuer) Verify(tokenStr string) (subject string, ok bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
