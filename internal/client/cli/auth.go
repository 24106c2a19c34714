package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/helpdesk/internal/client/client"
	"github.com/dmitrijs2005/helpdesk/internal/client/session"
	"github.com/dmitrijs2005/helpdesk/internal/common"
)

// Register prompts for the account details and creates an unverified account.
// The server answers with the verification link, which is printed together
// with a hint to use either it or the emailed code.
func (a *App) Register(ctx context.Context) error {
	name, err := a.prompt.Line("Full name")
	if err != nil {
		return err
	}
	email, err := a.prompt.Line("Email")
	if err != nil {
		return err
	}
	phone, err := a.prompt.Line("Phone (optional)")
	if err != nil {
		return err
	}

	password, err := a.prompt.Secret("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.api.Register(ctx, client.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: string(password),
		Phone:    phone,
	})
	if err != nil {
		return a.report(err)
	}

	a.lastEmail = resp.User.Email
	fmt.Fprintln(a.out, resp.Message)
	fmt.Fprintln(a.out, "Verification link:", resp.VerificationURL)
	fmt.Fprintln(a.out, "Use 'verify' with the link or 'verify-otp' with the emailed code.")
	return nil
}

// Login authenticates and stores the session token in the session file.
func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt.Line("Email")
	if err != nil {
		return err
	}

	password, err := a.prompt.Secret("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return a.report(err)
	}

	sess := session.Session{Email: resp.User.Email, Token: resp.Token}
	if err := a.store.Save(ctx, sess); err != nil {
		return a.report(err)
	}
	a.session = &sess

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", resp.User.Name, resp.User.Role)
	return nil
}

// Me shows the account behind the stored session. An expired or revoked
// token logs the user out locally.
func (a *App) Me(ctx context.Context) error {
	if a.session == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	u, err := a.api.Me(ctx, a.session.Token)
	if errors.Is(err, client.ErrUnauthorized) {
		fmt.Fprintln(a.out, "Session expired, please log in again.")
		return a.Logout(ctx)
	}
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "id:       %s\nname:     %s\nemail:    %s\nrole:     %s\nverified: %t\n",
		u.ID, u.Name, u.Email, u.Role, u.IsVerified)
	return nil
}

// Logout forgets the stored session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.session = nil
	return nil
}

// report prints err for the user and returns it.
func (a *App) report(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintln(a.out, "Error:", apiErr.Message)
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later.")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}
