package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	usersrepo "github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

// --- test doubles shared by the service tests ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	records map[string]*models.User

	getErr    error
	createErr error
	updateErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{records: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Get(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsersRepo) CreateIfAbsent(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[user.ID]; ok {
		return common.ErrUserExists
	}
	copied := *user
	f.records[user.ID] = &copied
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.records[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeUsersRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if u, ok := f.records[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time

	containsErr error
	putErr      error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]time.Time)}
}

func (f *fakeRevocations) Contains(ctx context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.containsErr != nil {
		return false, f.containsErr
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeRevocations) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.revoked[jti] = expiresAt
	return nil
}

type fakeResetTokens struct {
	mu      sync.Mutex
	records map[string]*models.ResetToken

	putErr error
}

func newFakeResetTokens() *fakeResetTokens {
	return &fakeResetTokens{records: make(map[string]*models.ResetToken)}
}

func (f *fakeResetTokens) Get(ctx context.Context, token string) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeResetTokens) Put(ctx context.Context, token *models.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	copied := *token
	f.records[token.Token] = &copied
	return nil
}

func (f *fakeResetTokens) MarkUsed(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[token]
	if !ok {
		return common.ErrorNotFound
	}
	r.Used = true
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeDispatcher) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func userRecord(id, email string, tn tenant.Context) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        id,
		Email:     email,
		ClientID:  tn.ClientID,
		SiteID:    tn.SiteID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: 24 * time.Hour,
		RefreshWindow:               2 * time.Hour,
		ResetTokenValidityDuration:  time.Hour,
	}
}
