// Package auth validates platform bearer tokens for the feed service.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer verification parameters.
type Config struct {
	Secret string
	Issuer string
}

// Claims is the feed service's view of a validated token: who the
// caller is, which tenant their feed queries are confined to, and
// which scopes they hold.
type Claims struct {
	Subject   string
	TenantID  string
	Scopes    map[string]struct{}
	ExpiresAt time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// rawClaims mirrors the token payload the platform issuer signs.
// Scopes stays untyped because older issuers emit a space-delimited
// string where newer ones emit an array.
type rawClaims struct {
	TenantID string `json:"tenant_id"`
	Scopes   any    `json:"scopes"`
	jwt.RegisteredClaims
}

// Parse validates a JWT and returns normalized claims. Tokens without
// a tenant binding are rejected: every feed read and write is scoped
// to a tenant, so a token that cannot name one is useless here.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	var raw rawClaims
	_, err := jwt.ParseWithClaims(token, &raw, func(t *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if raw.Subject == "" || raw.TenantID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:   raw.Subject,
		TenantID:  raw.TenantID,
		Scopes:    scopeSet(raw.Scopes),
		ExpiresAt: raw.ExpiresAt.Time,
	}, nil
}

func scopeSet(value any) map[string]struct{} {
	out := make(map[string]struct{})
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out[s] = struct{}{}
		}
	}
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, " ") {
			add(s)
		}
	}
	return out
}

// HasScope reports whether the claim set includes the provided scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Scopes[scope]
	return ok
}
