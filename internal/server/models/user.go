package models

import "time"

// User is a tenant-scoped credential record. ID is the composite identity key
// client_id#site_id#lowercased_email and is globally unique per tenant+email.
// PasswordHash is the self-describing scrypt digest string; the plaintext is
// never stored and never logged.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	ClientID     string
	SiteID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}
