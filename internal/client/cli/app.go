// Package cli implements the interactive gatectl shell.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
)

// API is the slice of the HTTP client the shell commands need.
type API interface {
	Register(ctx context.Context, email, password, name string) (*client.User, error)
	Login(ctx context.Context, email, password string) (*client.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Profile(ctx context.Context) (*client.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	AccessToken() string
}

type App struct {
	config    *config.Config
	api       API
	userEmail string
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	apiClient := client.NewHTTPClient(c.ServerURL, c.APIKey, c.RequestTimeout)

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.AccessToken() != ""
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
