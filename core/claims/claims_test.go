package claims

import (
	"context"
	"errors"
	"testing"
)

func TestGet(t *testing.T) {
	if _, err := Get(context.Background()); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}

	if _, err := Get(Set(context.Background(), Claims{})); !errors.Is(err, ErrMissing) {
		t.Fatalf("empty claims should count as missing, got %v", err)
	}

	want := Claims{UserID: "u1", Role: RoleUser}
	got, err := Get(Set(context.Background(), want))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestOwns(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		owner  string
		want   bool
	}{
		{"same user", Claims{UserID: "u1", Role: RoleUser}, "u1", true},
		{"other user", Claims{UserID: "u1", Role: RoleUser}, "u2", false},
		{"admin", Claims{UserID: "a1", Role: RoleAdmin}, "u2", true},
		{"anonymous", Claims{}, "", false},
	}

	for _, tt := range tests {
		if got := tt.claims.Owns(tt.owner); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleInstructor, RoleUser} {
		if !r.Valid() {
			t.Errorf("role %q should be valid", r)
		}
	}
	if Role("ROOT").Valid() {
		t.Error("unknown role should be invalid")
	}
}
