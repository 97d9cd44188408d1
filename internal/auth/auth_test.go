package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/friendlog/friendlog/internal/store/sqlite"
	"github.com/friendlog/friendlog/internal/token"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	iss := token.NewIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(st, iss, bcrypt.MinCost)
}

func validSignup() SignupParams {
	return SignupParams{
		Name:         "Alice",
		Email:        "alice@example.com",
		EmailConfirm: "alice@example.com",
		Password:     "hunter22",
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if account.ID == "" {
		t.Fatal("expected generated account id")
	}
	if account.PasswordHash == "hunter22" {
		t.Fatal("password stored in clear")
	}

	got, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("expected id %s, got %s", account.ID, got.ID)
	}

	// Email is normalized on both ends.
	if _, err := svc.Login(ctx, "  ALICE@example.com ", "hunter22"); err != nil {
		t.Fatalf("login with unnormalized email: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SignupParams)
	}{
		{"missing name", func(p *SignupParams) { p.Name = " " }},
		{"bad email", func(p *SignupParams) { p.Email = "not-an-email"; p.EmailConfirm = "not-an-email" }},
		{"email mismatch", func(p *SignupParams) { p.EmailConfirm = "other@example.com" }},
		{"short password", func(p *SignupParams) { p.Password = "abc" }},
	}
	for _, tc := range cases {
		p := validSignup()
		tc.mutate(&p)
		_, err := svc.Signup(ctx, p)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(ctx, validSignup()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginOpaqueFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, errNoUser := svc.Login(ctx, "nobody@example.com", "hunter22")
	_, errBadPass := svc.Login(ctx, "alice@example.com", "wrongpass")
	if !errors.Is(errNoUser, ErrUnauthorized) || !errors.Is(errBadPass, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for both, got %v / %v", errNoUser, errBadPass)
	}
	if errNoUser.Error() != errBadPass.Error() {
		t.Fatal("login failures must be indistinguishable")
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, err := svc.IssuePair(account.ID)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.Access == "" || next.Refresh == "" {
		t.Fatalf("incomplete pair: %+v", next)
	}

	// An access token is not accepted at the refresh exchange.
	if _, err := svc.Refresh(ctx, pair.Access); !errors.Is(err, token.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for access token, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.ChangePassword(ctx, account.ID, "wrongpass", "newpassword"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "hunter22", "short"); err == nil {
		t.Fatal("expected validation error for short password")
	}
	if err := svc.ChangePassword(ctx, account.ID, "hunter22", "newpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "hunter22"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
