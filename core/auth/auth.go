// Package auth resolves the session into claims and guards routes with them.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
	stateKey  = "oauth_state"
)

// LoadAndSave adapts the scs middleware to web handlers. Handlers downstream
// receive the request context that carries the session.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Identify turns the session into claims once per request. Anonymous requests
// pass through untouched.
func Identify(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := sm.GetString(ctx, userIDKey)
			if id != "" {
				ctx = claims.Set(ctx, claims.Claims{
					UserID: id,
					Role:   claims.Role(sm.GetString(ctx, roleKey)),
				})
			}

			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Authenticate rejects requests without claims.
func Authenticate() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Admin() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, err := claims.Get(ctx)
			if err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			if !clm.IsAdmin() {
				return weberr.Forbidden(errors.New("admin role required"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func login(ctx context.Context, sm *scs.SessionManager, c claims.Claims) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, userIDKey, c.UserID)
	sm.Put(ctx, roleKey, string(c.Role))
	return nil
}
