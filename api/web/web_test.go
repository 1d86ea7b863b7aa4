package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWrapMiddlewareOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				calls = append(calls, name)
				return next(ctx, w, r)
			}
		}
	}

	h := WrapMiddleware([]Middleware{mw("outer"), nil, mw("inner")}, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		calls = append(calls, "handler")
		return nil
	})

	if err := h(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(calls, ","); got != "outer,inner,handler" {
		t.Fatalf("unexpected call order %s", got)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var v struct {
		CourseID string `json:"courseId"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"courseId":"c1","qty":2}`))
	if err := Decode(httptest.NewRecorder(), r, &v); err == nil {
		t.Fatal("expected an error for an unknown field")
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"courseId":"c1"}`))
	if err := Decode(httptest.NewRecorder(), r, &v); err != nil {
		t.Fatal(err)
	}
	if v.CourseID != "c1" {
		t.Fatalf("expected c1, got %q", v.CourseID)
	}
}

func TestRespond(t *testing.T) {
	w := httptest.NewRecorder()
	if err := Respond(context.Background(), w, map[string]bool{"received": true}, http.StatusOK); err != nil {
		t.Fatal(err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := w.Body.String(); body != `{"received":true}` {
		t.Fatalf("unexpected body %s", body)
	}

	w = httptest.NewRecorder()
	if err := Respond(context.Background(), w, "ignored", http.StatusNoContent); err != nil {
		t.Fatal(err)
	}
	if w.Body.Len() != 0 || w.Code != http.StatusNoContent {
		t.Fatalf("no content responses must be empty, got %d %q", w.Code, w.Body.String())
	}
}
