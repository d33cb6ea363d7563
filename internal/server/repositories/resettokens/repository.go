// Package resettokens stores single-use password-reset tokens.
package resettokens

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type Repository interface {
	// Get returns the stored token record or common.ErrorNotFound.
	Get(ctx context.Context, token string) (*models.ResetToken, error)

	// Put stores a freshly issued token record.
	Put(ctx context.Context, token *models.ResetToken) error

	// MarkUsed flips the used flag so the token cannot be redeemed again.
	MarkUsed(ctx context.Context, token string) error
}
