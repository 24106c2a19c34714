package cli

import (
	"context"
	"fmt"
	"strings"
)

// VerifyLink accepts either the full verification link or the bare token.
func (a *App) VerifyLink(ctx context.Context) error {
	input, err := a.prompt.Line("Verification link or token")
	if err != nil {
		return err
	}

	token := tokenFromLink(input)
	if token == "" {
		fmt.Fprintln(a.out, "No token given.")
		return nil
	}

	msg, err := a.api.VerifyEmail(ctx, token)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) VerifyOTP(ctx context.Context) error {
	email, err := a.promptEmail()
	if err != nil {
		return err
	}
	code, err := a.prompt.Line("6-digit code")
	if err != nil {
		return err
	}

	msg, err := a.api.VerifyOTP(ctx, email, code)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	email, err := a.promptEmail()
	if err != nil {
		return err
	}

	msg, err := a.api.ResendOTP(ctx, email)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// promptEmail asks for an email, defaulting to the one just registered.
func (a *App) promptEmail() (string, error) {
	label := "Email"
	if a.lastEmail != "" {
		label = fmt.Sprintf("Email [%s]", a.lastEmail)
	}
	email, err := a.prompt.Line(label)
	if err != nil {
		return "", err
	}
	if email == "" {
		email = a.lastEmail
	}
	return email, nil
}

// tokenFromLink returns the last path segment of a verification link, or the
// input itself when it is already a token.
func tokenFromLink(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
