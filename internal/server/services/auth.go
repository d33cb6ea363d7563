package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/password"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

// AuthService implements login and registration against the credential store.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService) *AuthService {
	return &AuthService{db: db, repomanager: m, tokens: tokens}
}

// Login verifies the credentials for a tenant-scoped identity and returns a
// signed access token plus the user record. "No such user" and "wrong
// password" both come back as ErrInvalidCredentials so account existence
// cannot be probed through the login endpoint.
func (s *AuthService) Login(ctx context.Context, email, plaintext string, tn tenant.Context) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.Get(ctx, tn.UserID(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.ErrorInternal
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID, user.Email, tn)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, common.ErrorInternal
	}
	user.LastLogin = &now

	return token, user, nil
}

// Profile returns the stored record for a verified token subject. A subject
// whose record has disappeared gets ErrUserGone, not a generic not-found.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserGone
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}

// Register creates a new tenant-scoped user record with a hashed password.
// Returns ErrUserExists when the identity key is already taken; the existence
// check and the insert are one atomic store operation.
func (s *AuthService) Register(ctx context.Context, email, plaintext, name string, tn tenant.Context) (*models.User, error) {
	digest, err := password.Hash(plaintext)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           tn.UserID(email),
		Email:        tenant.NormalizeEmail(email),
		PasswordHash: digest,
		Name:         name,
		ClientID:     tn.ClientID,
		SiteID:       tn.SiteID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.CreateIfAbsent(ctx, user); err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return nil, common.ErrUserExists
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}
