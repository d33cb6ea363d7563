package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

// ---- fakes ----

type fakeAuth struct {
	loginToken string
	loginUser  *models.User
	loginErr   error

	regUser *models.User
	regErr  error

	profUser *models.User
	profErr  error
}

func (f *fakeAuth) Login(ctx context.Context, email, plaintext string, tn tenant.Context) (string, *models.User, error) {
	return f.loginToken, f.loginUser, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, email, plaintext, name string, tn tenant.Context) (*models.User, error) {
	return f.regUser, f.regErr
}

func (f *fakeAuth) Profile(ctx context.Context, userID string) (*models.User, error) {
	return f.profUser, f.profErr
}

type fakeTokens struct {
	verifyClaims *auth.Claims
	verifyErr    error

	refreshToken string
	refreshErr   error

	revoked   []string
	revokeErr error
}

func (f *fakeTokens) Verify(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return f.verifyClaims, f.verifyErr
}

func (f *fakeTokens) Refresh(ctx context.Context, tokenString string) (string, error) {
	return f.refreshToken, f.refreshErr
}

func (f *fakeTokens) Revoke(ctx context.Context, claims *auth.Claims) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, claims.ID)
	return nil
}

type fakeReset struct {
	requested  []string
	requestErr error

	redeemed  []string
	redeemErr error
}

func (f *fakeReset) Request(ctx context.Context, email string, tn tenant.Context) error {
	if f.requestErr != nil {
		return f.requestErr
	}
	f.requested = append(f.requested, email)
	return nil
}

func (f *fakeReset) Redeem(ctx context.Context, token, newPassword string) error {
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeemed = append(f.redeemed, token)
	return nil
}

// ---- helpers ----

func newTestServer(fa *fakeAuth, ft *fakeTokens, fr *fakeReset) *HTTPServer {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	resolver := tenant.NewResolver(map[string]tenant.Context{
		"good_key": {ClientID: "ClientA", SiteID: "SiteA"},
	})
	return NewHTTPServer(":0", logger, fa, ft, fr, resolver)
}

func doRequest(t *testing.T, s *HTTPServer, method, path, apiKey, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, apiKey)
	}
	if bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+bearer)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return out
}

func testClaims(userID string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   userID,
		Email:    "user@example.com",
		ClientID: "ClientA",
		SiteID:   "SiteA",
	}
}

// ---- tests ----

func TestRegister_Success(t *testing.T) {
	fa := &fakeAuth{regUser: &models.User{ID: "ClientA#SiteA#user@example.com", Email: "user@example.com", Name: "User"}}
	s := newTestServer(fa, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "good_key", "",
		`{"email":"user@example.com","password":"longenough","name":"User"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	out := decodeResponse(t, rr)
	if out["message"] != "Registration successful" {
		t.Errorf("unexpected message: %v", out["message"])
	}
	user, _ := out["user"].(map[string]any)
	if user["user_id"] != "ClientA#SiteA#user@example.com" {
		t.Errorf("unexpected user_id: %v", user["user_id"])
	}
}

func TestRegister_InvalidAPIKey(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "bad_key", "",
		`{"email":"user@example.com","password":"longenough"}`)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	out := decodeResponse(t, rr)
	if out["error"] != "Invalid API key" {
		t.Errorf("unexpected error: %v", out["error"])
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing email", `{"password":"longenough"}`, "Email and password required"},
		{"missing password", `{"email":"user@example.com"}`, "Email and password required"},
		{"short password", `{"email":"user@example.com","password":"short"}`, "Password must be at least 8 characters"},
		{"bad json", `{`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, s, http.MethodPost, "/auth/register", "good_key", "", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			out := decodeResponse(t, rr)
			if out["error"] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, out["error"])
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	fa := &fakeAuth{regErr: common.ErrUserExists}
	s := newTestServer(fa, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "good_key", "",
		`{"email":"user@example.com","password":"longenough"}`)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	fa := &fakeAuth{
		loginToken: "signed-token",
		loginUser:  &models.User{ID: "ClientA#SiteA#user@example.com", Email: "user@example.com", Name: "User"},
	}
	s := newTestServer(fa, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/login", "good_key", "",
		`{"email":"user@example.com","password":"longenough"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	out := decodeResponse(t, rr)
	if out["token"] != "signed-token" {
		t.Errorf("unexpected token: %v", out["token"])
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	fa := &fakeAuth{loginErr: common.ErrInvalidCredentials}
	s := newTestServer(fa, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/login", "good_key", "",
		`{"email":"user@example.com","password":"wrongwrong"}`)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	out := decodeResponse(t, rr)
	if out["error"] != "Invalid credentials" {
		t.Errorf("unexpected error: %v", out["error"])
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	ft := &fakeTokens{verifyClaims: testClaims("u1")}
	s := newTestServer(&fakeAuth{}, ft, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/logout", "", "some-token", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(ft.revoked) != 1 || ft.revoked[0] != "jti-1" {
		t.Errorf("expected jti-1 revoked, got %v", ft.revoked)
	}
}

func TestLogout_NoToken(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/logout", "", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	out := decodeResponse(t, rr)
	if out["error"] != "No token provided" {
		t.Errorf("unexpected error: %v", out["error"])
	}
}

func TestLogout_RevokedToken(t *testing.T) {
	ft := &fakeTokens{verifyErr: common.ErrTokenRevoked}
	s := newTestServer(&fakeAuth{}, ft, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/logout", "", "revoked-token", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRefresh_Success(t *testing.T) {
	ft := &fakeTokens{refreshToken: "fresh-token"}
	s := newTestServer(&fakeAuth{}, ft, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/token/refresh", "", "old-token", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	out := decodeResponse(t, rr)
	if out["token"] != "fresh-token" {
		t.Errorf("unexpected token: %v", out["token"])
	}
}

func TestRefresh_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"too early", common.ErrRefreshTooEarly, http.StatusBadRequest, "Token still valid, refresh not needed"},
		{"expired", common.ErrTokenExpired, http.StatusUnauthorized, "Token expired. Please log in again."},
		{"user gone", common.ErrUserGone, http.StatusForbidden, "User no longer exists"},
		{"malformed", common.ErrTokenMalformed, http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTokens{refreshErr: tt.err}
			s := newTestServer(&fakeAuth{}, ft, &fakeReset{})

			rr := doRequest(t, s, http.MethodPost, "/auth/token/refresh", "", "old-token", "")

			if rr.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rr.Code)
			}
			out := decodeResponse(t, rr)
			if out["error"] != tt.msg {
				t.Errorf("expected %q, got %v", tt.msg, out["error"])
			}
		})
	}
}

func TestRefresh_NoToken(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/token/refresh", "", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestPasswordReset_GenericResponse(t *testing.T) {
	fr := &fakeReset{}
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, fr)

	rr := doRequest(t, s, http.MethodPost, "/auth/password-reset", "good_key", "",
		`{"email":"user@example.com"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	out := decodeResponse(t, rr)
	if out["message"] != "If account exists, reset email sent" {
		t.Errorf("unexpected message: %v", out["message"])
	}
	if len(fr.requested) != 1 {
		t.Errorf("expected 1 request, got %d", len(fr.requested))
	}
}

func TestPasswordReset_RequiresAPIKey(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/password-reset", "", "",
		`{"email":"user@example.com"}`)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestResetConfirm_Success(t *testing.T) {
	fr := &fakeReset{}
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, fr)

	rr := doRequest(t, s, http.MethodPost, "/auth/password-reset/confirm", "", "",
		`{"token":"reset-token","new_password":"longenough"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fr.redeemed) != 1 || fr.redeemed[0] != "reset-token" {
		t.Errorf("expected reset-token redeemed, got %v", fr.redeemed)
	}
}

func TestResetConfirm_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"unknown token", common.ErrResetTokenNotFound, "Invalid or expired token"},
		{"used token", common.ErrResetTokenUsed, "Token already used"},
		{"expired token", common.ErrResetTokenExpired, "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeReset{redeemErr: tt.err}
			s := newTestServer(&fakeAuth{}, &fakeTokens{}, fr)

			rr := doRequest(t, s, http.MethodPost, "/auth/password-reset/confirm", "", "",
				`{"token":"reset-token","new_password":"longenough"}`)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			out := decodeResponse(t, rr)
			if out["error"] != tt.msg {
				t.Errorf("expected %q, got %v", tt.msg, out["error"])
			}
		})
	}
}

func TestResetConfirm_ShortPassword(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodPost, "/auth/password-reset/confirm", "", "",
		`{"token":"reset-token","new_password":"short"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUser_Profile(t *testing.T) {
	fa := &fakeAuth{profUser: &models.User{
		ID:       "ClientA#SiteA#user@example.com",
		Email:    "user@example.com",
		Name:     "User",
		ClientID: "ClientA",
		SiteID:   "SiteA",
	}}
	ft := &fakeTokens{verifyClaims: testClaims("ClientA#SiteA#user@example.com")}
	s := newTestServer(fa, ft, &fakeReset{})

	rr := doRequest(t, s, http.MethodGet, "/user", "", "some-token", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	out := decodeResponse(t, rr)
	user, _ := out["user"].(map[string]any)
	if user["client_id"] != "ClientA" || user["site_id"] != "SiteA" {
		t.Errorf("unexpected tenant fields: %v", user)
	}
}

func TestUser_Gone(t *testing.T) {
	fa := &fakeAuth{profErr: common.ErrUserGone}
	ft := &fakeTokens{verifyClaims: testClaims("missing")}
	s := newTestServer(fa, ft, &fakeReset{})

	rr := doRequest(t, s, http.MethodGet, "/user", "", "some-token", "")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	tests := []struct {
		path string
		key  string
		want string
	}{
		{"/health", "status", "ok"},
		{"/health/live", "status", "live"},
		{"/health/ready", "status", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := doRequest(t, s, http.MethodGet, tt.path, "", "", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			out := decodeResponse(t, rr)
			if out[tt.key] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, out[tt.key])
			}
		})
	}
}

func TestRoot(t *testing.T) {
	s := newTestServer(&fakeAuth{}, &fakeTokens{}, &fakeReset{})

	rr := doRequest(t, s, http.MethodGet, "/", "", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	out := decodeResponse(t, rr)
	if out["ok"] != true {
		t.Errorf("unexpected body: %v", out)
	}
}
