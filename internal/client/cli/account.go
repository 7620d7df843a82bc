package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/contactkeeper/internal/client/client"
	"github.com/dmitrijs2005/contactkeeper/internal/common"
)

// describe turns an API error into a line for the user.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrNotLoggedIn):
		return "please login first"
	default:
		return err.Error()
	}
}

func (a *App) report(err error) error {
	printlnFn("Error:", describe(err))
	return err
}

// credentials asks for an email and a password. The caller wipes the password.
func (a *App) credentials() (string, []byte, error) {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func (a *App) Signup(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	summary, err := a.api.Signup(ctx, email, string(password))
	if err != nil {
		return a.report(err)
	}

	printlnFn("Account created:", summary.Email, "("+summary.Subscription+")")
	printlnFn("Check your inbox and run 'verify <token>' with the token from the link.")
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	token, err := argOrPrompt(args, a.reader, "Enter verification token", a.out)
	if err != nil {
		return a.report(err)
	}
	if err := a.api.Verify(ctx, token); err != nil {
		return a.report(err)
	}
	printlnFn("Verification successful")
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	if err := a.api.ResendVerification(ctx, email); err != nil {
		return a.report(err)
	}
	printlnFn("Verification email sent")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		return a.report(err)
	}

	a.email = email
	printlnFn("Login successful")
	return nil
}

func (a *App) Current(ctx context.Context) error {
	summary, err := a.api.Current(ctx)
	if err != nil {
		return a.report(err)
	}
	printlnFn("Email:", summary.Email)
	printlnFn("Subscription:", summary.Subscription)
	return nil
}

func (a *App) ChangeSubscription(ctx context.Context, args []string) error {
	tier, err := argOrPrompt(args, a.reader, "Enter subscription (starter, pro, business)", a.out)
	if err != nil {
		return a.report(err)
	}
	summary, err := a.api.ChangeSubscription(ctx, tier)
	if err != nil {
		return a.report(err)
	}
	printlnFn("Subscription updated:", summary.Subscription)
	return nil
}

// UploadAvatar sends a local image straight to storage through a presigned
// URL and then points the account at it.
func (a *App) UploadAvatar(ctx context.Context, args []string) error {
	path, err := argOrPrompt(args, a.reader, "Enter path to image", a.out)
	if err != nil {
		return a.report(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return a.report(err)
	}

	upload, err := a.api.RequestAvatarUpload(ctx)
	if err != nil {
		return a.report(err)
	}
	if err := a.api.UploadAvatar(ctx, upload.URL, data); err != nil {
		return a.report(err)
	}
	avatarURL, err := a.api.CommitAvatar(ctx, upload.Key)
	if err != nil {
		return a.report(err)
	}

	printlnFn("Avatar updated:", avatarURL)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if !a.api.LoggedIn() {
		a.email = ""
	}
	if err != nil {
		return a.report(err)
	}
	printlnFn("Logged out")
	return nil
}
