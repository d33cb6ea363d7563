// Package common defines shared constants and sentinel errors used across
// Gatekeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Tenant resolution.
	ErrInvalidTenant = errors.New("invalid api key")

	// Authentication flow.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserGone           = errors.New("user no longer exists")

	// Access token lifecycle.
	ErrTokenMalformed  = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrRefreshTooEarly = errors.New("token still valid, refresh not needed")

	// Password reset tokens.
	ErrResetTokenNotFound = errors.New("invalid reset token")
	ErrResetTokenUsed     = errors.New("reset token already used")
	ErrResetTokenExpired  = errors.New("reset token expired")
)
