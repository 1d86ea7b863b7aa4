// Package claims holds the identity resolved from the session for a request.
package claims

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleUser       Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleUser:
		return true
	}
	return false
}

// Claims is built once at the HTTP boundary and passed by value afterwards.
type Claims struct {
	UserID string
	Role   Role
}

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Owns reports whether the claims may act on a resource owned by userID.
func (c Claims) Owns(userID string) bool {
	return c.UserID != "" && (c.UserID == userID || c.IsAdmin())
}

// ErrMissing is returned by Get when the request is unauthenticated.
var ErrMissing = errors.New("claims missing from context")

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok || v.UserID == "" {
		return Claims{}, ErrMissing
	}
	return v, nil
}
