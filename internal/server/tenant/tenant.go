// Package tenant maps API keys to tenant contexts. The resolver is the sole
// tenant-isolation boundary: every identity key downstream must be namespaced
// through the context it returns, never through a client-supplied tenant id.
package tenant

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// Context identifies the tenant scope of a request.
type Context struct {
	ClientID string `json:"client_id"`
	SiteID   string `json:"site_id"`
}

// UserID builds the tenant-scoped identity key for an email address.
// Emails are lowercased and trimmed so the same address always maps
// to the same record.
func (c Context) UserID(email string) string {
	return fmt.Sprintf("%s#%s#%s", c.ClientID, c.SiteID, NormalizeEmail(email))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Resolver resolves API keys against a configured allow-list.
// It is pure and deterministic, no I/O.
type Resolver struct {
	keys map[string]Context
}

// NewResolver builds a Resolver from an API key to tenant context mapping.
func NewResolver(keys map[string]Context) *Resolver {
	m := make(map[string]Context, len(keys))
	for k, v := range keys {
		m[k] = v
	}
	return &Resolver{keys: m}
}

// Resolve returns the tenant context for an API key, or ErrInvalidTenant
// if the key is not in the allow-list.
func (r *Resolver) Resolve(apiKey string) (Context, error) {
	ctx, ok := r.keys[apiKey]
	if !ok {
		return Context{}, common.ErrInvalidTenant
	}
	return ctx, nil
}
