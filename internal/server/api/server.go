// Package api exposes the authentication service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

// AuthService is the credential part of the business layer the handlers call.
type AuthService interface {
	Login(ctx context.Context, email, plaintext string, tn tenant.Context) (string, *models.User, error)
	Register(ctx context.Context, email, plaintext, name string, tn tenant.Context) (*models.User, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// TokenService is the token-lifecycle part of the business layer.
type TokenService interface {
	Verify(ctx context.Context, tokenString string) (*auth.Claims, error)
	Refresh(ctx context.Context, tokenString string) (string, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

// ResetService is the password-reset part of the business layer.
type ResetService interface {
	Request(ctx context.Context, email string, tn tenant.Context) error
	Redeem(ctx context.Context, token, newPassword string) error
}

// HTTPServer routes requests to the service layer and owns the process
// lifecycle of the listener.
type HTTPServer struct {
	address  string
	auth     AuthService
	tokens   TokenService
	reset    ResetService
	resolver *tenant.Resolver
	logger   logging.Logger
}

// NewHTTPServer constructs an HTTPServer bound to the given address.
func NewHTTPServer(a string, l logging.Logger, as AuthService, ts TokenService, rs ResetService, resolver *tenant.Resolver) *HTTPServer {
	return &HTTPServer{
		address:  a,
		logger:   l.With("module", "http_server"),
		auth:     as,
		tokens:   ts,
		reset:    rs,
		resolver: resolver,
	}
}

// Router builds the route table. Tenant-scoped routes go through the API key
// check, authenticated routes through bearer verification; refresh and reset
// confirmation are open because their tokens are the credential.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLive).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.withTenant(s.handleRegister)).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.withTenant(s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.withAuth(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/auth/token/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/password-reset", s.withTenant(s.handlePasswordReset)).Methods(http.MethodPost)
	r.HandleFunc("/auth/password-reset/confirm", s.handleResetConfirm).Methods(http.MethodPost)

	r.HandleFunc("/user", s.withAuth(s.handleUser)).Methods(http.MethodGet)

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "Shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
