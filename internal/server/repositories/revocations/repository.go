// Package revocations implements the token blacklist: jti values of revoked
// access tokens, kept only until the token would have expired on its own.
package revocations

import (
	"context"
	"time"
)

type Repository interface {
	// Contains reports whether jti has been revoked. Callers must treat an
	// error as "revoked" (fail closed); revocation has to take effect
	// immediately, so this check sits on the hot path of every
	// authenticated request and is never cached.
	Contains(ctx context.Context, jti string) (bool, error)

	// Put marks jti revoked until expiresAt, after which the entry may be
	// garbage-collected: a revocation never needs to outlive the token.
	Put(ctx context.Context, jti string, expiresAt time.Time) error
}
