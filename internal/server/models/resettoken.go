package models

import "time"

// ResetToken is a single-use password-reset token. Token is the random
// url-safe value mailed to the user; Used flips exactly once on redemption.
type ResetToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}
