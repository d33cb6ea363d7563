package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

type ctxKey string

const (
	tenantKey ctxKey = "tenant"
	claimsKey ctxKey = "claims"
)

// withTenant resolves the X-Api-Key header to a tenant and stores it in the
// request context. An unknown or missing key is rejected before the handler
// runs.
func (s *HTTPServer) withTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tn, err := s.resolver.Resolve(r.Header.Get(common.APIKeyHeaderName))
		if err != nil {
			s.writeError(w, r, common.ErrInvalidTenant)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), tenantKey, tn)))
	}
}

// withAuth verifies the bearer token and stores its claims in the request
// context. Verification includes the revocation check.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "No token provided"})
			return
		}

		claims, err := s.tokens.Verify(r.Context(), tokenString)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(header, common.BearerPrefix), true
}

func tenantFrom(ctx context.Context) tenant.Context {
	tn, _ := ctx.Value(tenantKey).(tenant.Context)
	return tn
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
