package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/domain"
)

func TestRegisterAssignsStudentRoleAndPaletteColor(t *testing.T) {
	env := newTestEnv()
	u, err := env.auth.Register(context.Background(), app.RegisterInput{FirstName: "Ann", LastName: "Lee", Email: " A@X.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Fatalf("email not normalised: %q", u.Email)
	}
	if len(u.Roles) != 1 || !u.Roles.Has(domain.RoleStudent) {
		t.Fatalf("expected student role, got %v", u.Roles)
	}
	found := false
	for _, c := range app.AvatarPalette {
		if c == u.AvatarColor {
			found = true
		}
	}
	if !found {
		t.Fatalf("avatar color %q not in palette", u.AvatarColor)
	}
	if u.PasswordHash == "secret1" || u.Score != 0 {
		t.Fatalf("unexpected stored user %+v", u)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	in := app.RegisterInput{FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Password: "secret1"}
	if _, err := env.auth.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := env.auth.Register(ctx, in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv()
	_, err := env.auth.Register(context.Background(), app.RegisterInput{Email: "not-an-email", Password: "123"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"firstName", "lastName", "email", "password"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, verr.Fields)
		}
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerAndLogin(t, "a@x.com", "pw1234567")

	_, wrongPassword := env.auth.Login(ctx, app.LoginInput{Email: "a@x.com", Password: "nope"})
	_, unknownEmail := env.auth.Login(ctx, app.LoginInput{Email: "b@x.com", Password: "pw1234567"})
	for _, err := range []error{wrongPassword, unknownEmail} {
		if !errors.Is(err, domain.ErrInvalidCredentials) || !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	}
}

func TestLoginReturnsTokenWithRoles(t *testing.T) {
	env := newTestEnv()
	p := env.registerAndLogin(t, "a@x.com", "pw1234567")
	if p.Email != "a@x.com" || !p.Roles.Has(domain.RoleStudent) || p.IsAdmin() {
		t.Fatalf("unexpected principal %+v", p)
	}
	me, err := env.auth.Me(context.Background(), p)
	if err != nil || me.ID != p.UserID {
		t.Fatalf("me: %+v (%v)", me, err)
	}
}

func TestPickAvatarColorIsUniformOverPalette(t *testing.T) {
	for i := range app.AvatarPalette {
		got := app.PickAvatarColor(func(n int) int {
			if n != len(app.AvatarPalette) {
				t.Fatalf("expected draw over %d colors, got %d", len(app.AvatarPalette), n)
			}
			return i
		})
		if got != app.AvatarPalette[i] {
			t.Fatalf("index %d: got %s", i, got)
		}
	}
}
