package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email, password and display name and
// attempts to create a new account for the configured tenant.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is wiped before returning. Any I/O or service error is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Enter name (optional)", os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.api.Register(ctx, email, string(password), name)
	if err != nil {
		return err
	}

	fmt.Printf("Success! Registered %s\n", user.UserID)
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the access token is kept by the underlying API client and attached
// to later authenticated calls.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	a.userEmail = user.Email
	log.Printf("Login successfull")
	return nil
}

// Logout revokes the current token server-side.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	a.userEmail = ""
	fmt.Println("Logged out")
	return nil
}

// Refresh exchanges the current token for a fresh one.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return err
	}
	fmt.Println("Token refreshed")
	return nil
}

// WhoAmI prints the authenticated user's profile.
func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s / %s)\n", user.Email, user.ClientID, user.SiteID)
	return nil
}

// RequestReset asks the server to mail a password reset link.
func (a *App) RequestReset(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.RequestPasswordReset(ctx, email); err != nil {
		return err
	}

	fmt.Println("If account exists, reset email sent")
	return nil
}

// ConfirmReset redeems a reset token for a new password.
func (a *App) ConfirmReset(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.ConfirmPasswordReset(ctx, token, string(password)); err != nil {
		return err
	}

	fmt.Println("Password reset successful")
	return nil
}
