package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what can be read from a JWT-shaped token without verifying it.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes token's claims without checking its signature. Opaque
// tokens (for example Sanctum "id|secret") return ok=false.
func ParseClaims(token string) (Claims, bool) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, false
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, false
	}
	c := Claims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, true
}

// RoleFetcher returns the role the backend currently reports for the user.
type RoleFetcher func(ctx context.Context) (string, error)

// RefreshRole asks the backend for the user's role and caches it when it
// differs from the stored one. On error the cached role is kept and
// returned alongside the error.
func RefreshRole(ctx context.Context, store Store, fetch RoleFetcher) (role string, changed bool, err error) {
	cached := store.Role()
	remote, err := fetch(ctx)
	if err != nil {
		return cached, false, err
	}
	remote = strings.ToLower(strings.TrimSpace(remote))
	if remote == "" || remote == cached {
		return cached, false, nil
	}
	if err := store.SaveRole(remote); err != nil {
		return cached, false, fmt.Errorf("failed to cache role: %w", err)
	}
	return remote, true, nil
}
