// Package users defines the credential store: tenant-scoped user records
// keyed by client_id#site_id#lowercased_email.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type Repository interface {
	// Get returns the record for a tenant-scoped identity key, or
	// common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.User, error)

	// CreateIfAbsent inserts the record only if the identity key does not
	// exist yet. The check and insert are a single atomic statement so two
	// concurrent registrations for the same key cannot both succeed.
	// Returns common.ErrUserExists when the key is taken.
	CreateIfAbsent(ctx context.Context, user *models.User) error

	// UpdatePasswordHash replaces the stored digest and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
