package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
)

func serve(t *testing.T, sm *scs.SessionManager, h web.Handler, cookies []*http.Cookie) (*httptest.ResponseRecorder, error) {
	t.Helper()

	h = web.WrapMiddleware([]web.Middleware{LoadAndSave(sm), Identify(sm)}, h)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	err := h(r.Context(), w, r)
	return w, err
}

func status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return weberr.Status(err)
}

func TestSessionClaims(t *testing.T) {
	sm := scs.New()
	want := claims.Claims{UserID: "8b5f3a3e-8a0e-4c57-9d3e-0f6b1f0c1a11", Role: claims.RoleAdmin}

	w, err := serve(t, sm, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return login(ctx, sm, want)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	var got claims.Claims
	_, err = serve(t, sm, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		got, err = claims.Get(ctx)
		return err
	}, cookies)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestGuards(t *testing.T) {
	ok := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error { return nil }

	tests := []struct {
		name   string
		clm    *claims.Claims
		mw     web.Middleware
		status int
	}{
		{"anonymous authenticate", nil, Authenticate(), http.StatusUnauthorized},
		{"user authenticate", &claims.Claims{UserID: "u", Role: claims.RoleUser}, Authenticate(), http.StatusOK},
		{"anonymous admin", nil, Admin(), http.StatusUnauthorized},
		{"user admin", &claims.Claims{UserID: "u", Role: claims.RoleUser}, Admin(), http.StatusForbidden},
		{"admin admin", &claims.Claims{UserID: "u", Role: claims.RoleAdmin}, Admin(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.clm != nil {
				ctx = claims.Set(ctx, *tt.clm)
			}

			r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
			err := tt.mw(ok)(ctx, httptest.NewRecorder(), r)
			if got := status(err); got != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, got)
			}
		})
	}
}
