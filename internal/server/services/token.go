// Package services contains the server-side business logic: token lifecycle,
// the authentication flow, and the password-reset workflow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/secrets"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

// TokenService issues, verifies, refreshes and revokes signed access tokens.
// Issuance is stateless; only revocations are written anywhere.
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	revocations revocations.Repository
	secrets     secrets.Provider

	accessTokenValidityDuration time.Duration
	refreshWindow               time.Duration
}

// NewTokenService constructs a TokenService using repositories and server config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, rev revocations.Repository, sp secrets.Provider, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                          db,
		repomanager:                 m,
		revocations:                 rev,
		secrets:                     sp,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		refreshWindow:               cfg.RefreshWindow,
	}
}

func (s *TokenService) signingSecret(ctx context.Context) ([]byte, error) {
	secret, err := s.secrets.GetSigningSecret(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return []byte(secret), nil
}

// Issue signs a new access token for the given tenant-scoped identity.
func (s *TokenService) Issue(ctx context.Context, userID, email string, tn tenant.Context) (string, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(userID, email, tn.ClientID, tn.SiteID, secret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// Verify checks a token string and returns its claims. Checks run in cost
// order: signature, then expiry, then the revocation lookup, which is the
// only I/O. A revocation-store failure rejects the token (fail closed).
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*auth.Claims, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := auth.ParseToken(tokenString, secret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.Contains(ctx, claims.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims, nil
}

// Refresh exchanges a token close to its expiry for a fresh one with a new
// jti. The old token is not revoked and stays valid until its natural expiry;
// revoking it here would invalidate the very response the client is still
// holding, so the overlap is accepted and bounded by the refresh window.
func (s *TokenService) Refresh(ctx context.Context, tokenString string) (string, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return "", err
	}

	claims, err := auth.ParseTokenIgnoringExpiry(tokenString, secret)
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt == nil {
		return "", common.ErrTokenMalformed
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return "", common.ErrTokenExpired
	}
	if remaining > s.refreshWindow {
		return "", common.ErrRefreshTooEarly
	}

	// The subject must still exist; a deleted user must not be able to keep
	// a session alive by refreshing forever.
	repo := s.repomanager.Users(s.db)
	if _, err := repo.Get(ctx, claims.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserGone
		}
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(claims.UserID, claims.Email, claims.ClientID, claims.SiteID, secret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// Revoke blacklists the token's jti until the moment the token would have
// expired anyway.
func (s *TokenService) Revoke(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return common.ErrTokenMalformed
	}
	if err := s.revocations.Put(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return common.ErrorInternal
	}
	return nil
}
