package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/mail"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/password"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

const resetTokenBytes = 32

// ResetService implements the password-reset workflow: issuing single-use
// reset tokens and redeeming them for a password change.
type ResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resetTokens resettokens.Repository
	mail        mail.Dispatcher
	logger      logging.Logger

	tokenValidity time.Duration
}

// NewResetService constructs a ResetService.
func NewResetService(db *sql.DB, m repomanager.RepositoryManager, rt resettokens.Repository, dispatcher mail.Dispatcher, logger logging.Logger, cfg *config.Config) *ResetService {
	return &ResetService{
		db:            db,
		repomanager:   m,
		resetTokens:   rt,
		mail:          dispatcher,
		logger:        logger.With("module", "reset"),
		tokenValidity: cfg.ResetTokenValidityDuration,
	}
}

// Request issues a reset token for the given email if a matching user exists,
// and dispatches it by email. The caller sees the same outcome whether or not
// the account exists: the found/not-found branches are collapsed here so the
// endpoint cannot be used to enumerate accounts. Only a failure to persist an
// issued token is reported.
func (s *ResetService) Request(ctx context.Context, email string, tn tenant.Context) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.Get(ctx, tn.UserID(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "reset requested for unknown identity", "client_id", tn.ClientID, "site_id", tn.SiteID)
		} else {
			s.logger.Error(ctx, "reset lookup failed", "error", err.Error())
		}
		// Deliberate: both branches collapse into the generic success the
		// boundary returns, so the store state is never observable.
		return nil
	}

	token, err := common.MakeRandURLSafeString(resetTokenBytes)
	if err != nil {
		return common.ErrorInternal
	}

	record := &models.ResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokenValidity).UTC(),
	}
	if err := s.resetTokens.Put(ctx, record); err != nil {
		return common.ErrorInternal
	}

	subject, body := resetMessage(user.SiteID, token)
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		// Best effort: the token is issued and valid, delivery problems are
		// an operator concern, not the requester's.
		s.logger.Warn(ctx, "reset email dispatch failed", "error", err.Error())
	}

	return nil
}

// Redeem consumes a reset token and sets a new password. The password update
// and the used-flag write go to two stores without a shared transaction; if
// the second write fails the token stays redeemable against an already
// changed password, a rare race this version accepts.
func (s *ResetService) Redeem(ctx context.Context, token, newPassword string) error {
	record, err := s.resetTokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenNotFound
		}
		return common.ErrorInternal
	}

	if record.Used {
		return common.ErrResetTokenUsed
	}
	if time.Now().After(record.ExpiresAt) {
		return common.ErrResetTokenExpired
	}

	digest, err := password.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdatePasswordHash(ctx, record.UserID, digest); err != nil {
		return common.ErrorInternal
	}

	if err := s.resetTokens.MarkUsed(ctx, token); err != nil {
		s.logger.Error(ctx, "password changed but token not marked used", "error", err.Error())
		return common.ErrorInternal
	}

	return nil
}

// resetMessage builds the reset email for a site. The link format mirrors the
// per-site frontends that consume it.
func resetMessage(siteID, token string) (subject, body string) {
	link := fmt.Sprintf("https://%s.com/reset-password?token=%s", strings.ToLower(siteID), token)
	return "Password Reset Request", "Click here to reset: " + link
}
