package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

var tenantB = tenant.Context{ClientID: "ClientCustomerA", SiteID: "SiteB"}

func newAuthService(t *testing.T, users *fakeUsersRepo) *AuthService {
	t.Helper()
	if users == nil {
		users = newFakeUsersRepo()
	}
	cfg := testConfig()
	m := &fakeRepoManager{u: users}
	tokens := newTokenService(t, cfg, users, nil)
	return NewAuthService(nil, m, tokens)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	user, err := s.Register(ctx, "A@X.com", "secret123", "Alice", tenantA)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != "ClientCustomerC#SiteA#a@x.com" {
		t.Fatalf("identity key mismatch: %q", user.ID)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("email must be normalized: %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatalf("password must be stored hashed")
	}

	tok, logged, err := s.Login(ctx, "a@x.com", "secret123", tenantA)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected a token")
	}
	if logged.LastLogin == nil {
		t.Fatalf("last_login must be set on successful login")
	}
}

func TestLogin_TokenCarriesTenant(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret123", "", tenantA); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	tok, _, err := s.Login(ctx, "a@x.com", "secret123", tenantA)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	claims, err := s.tokens.Verify(ctx, tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.ClientID != tenantA.ClientID || claims.SiteID != tenantA.SiteID {
		t.Fatalf("token must carry the resolved tenant, got %+v", claims)
	}
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret123", "", tenantA); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, _, errUnknown := s.Login(ctx, "nobody@x.com", "secret123", tenantA)
	_, _, errWrongPw := s.Login(ctx, "a@x.com", "wrong-password", tenantA)

	if !errors.Is(errUnknown, common.ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, common.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", errWrongPw)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret123", "", tenantA); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, err := s.Register(ctx, "a@x.com", "other-password", "", tenantA)
	if !errors.Is(err, common.ErrUserExists) {
		t.Fatalf("want ErrUserExists, got %v", err)
	}
}

func TestRegister_SameEmailDifferentTenants(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	ua, err := s.Register(ctx, "a@x.com", "secret123", "", tenantA)
	if err != nil {
		t.Fatalf("Register under tenant A: %v", err)
	}
	ub, err := s.Register(ctx, "a@x.com", "secret123", "", tenantB)
	if err != nil {
		t.Fatalf("Register under tenant B: %v", err)
	}
	if ua.ID == ub.ID {
		t.Fatalf("tenants must produce distinct records for the same email")
	}
}

func TestLogin_TenantIsolation(t *testing.T) {
	users := newFakeUsersRepo()
	s := newAuthService(t, users)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret123", "", tenantA); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// Right credentials, wrong tenant: there is no such record in tenant B's
	// namespace, so the outcome is indistinguishable from bad credentials.
	_, _, err := s.Login(ctx, "a@x.com", "secret123", tenantB)
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}
