package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelflare/studio/internal/client"
	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string
	var google bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the studio",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			if google {
				return runGoogleLogin(cmd.Context(), app, openBrowser)
			}
			return runLogin(cmd.Context(), app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set STUDIO_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set STUDIO_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&google, "google", false, "Sign in with Google in the browser")

	return cmd
}

func runLogin(ctx context.Context, app *App, email, password string) error {
	email, err := valueOr(email, "STUDIO_EMAIL", func() (string, error) {
		return app.Prompt.Input("Email", notEmpty)
	})
	if err != nil {
		return err
	}
	password, err = valueOr(password, "STUDIO_PASSWORD", func() (string, error) {
		return app.Prompt.Secret("Password")
	})
	if err != nil {
		return err
	}

	if err := app.Store.Login(ctx, session.Credentials{Email: email, Password: password}); err != nil {
		return authFailure("login failed", app, err)
	}

	user := app.Store.State().User
	app.printf("✓ Logged in as %s (%s)\n", user.FullName(), user.Email)
	if user.IsAdmin() {
		app.printf("  Role: Admin\n")
	}
	return nil
}

// authFailure prefers the message the session recorded for the failed
// transition; validation errors never reach the session.
func authFailure(prefix string, app *App, err error) error {
	if gateway.IsKind(err, gateway.KindValidation) {
		return fmt.Errorf("%s: %s", prefix, gateway.MessageOf(err, err.Error()))
	}
	if errors.Is(err, session.ErrSuperseded) {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if msg := app.Store.State().Error; msg != "" {
		return fmt.Errorf("%s: %s", prefix, msg)
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// NewSignupCmd creates the signup command
func NewSignupCmd() *cobra.Command {
	var form session.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a customer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runSignup(cmd.Context(), app, form)
		},
	}

	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func runSignup(ctx context.Context, app *App, form session.SignupRequest) error {
	fields := []struct {
		value *string
		label string
	}{
		{&form.FirstName, "First name"},
		{&form.LastName, "Last name"},
		{&form.Email, "Email"},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := app.Prompt.Input(f.label, notEmpty)
		if err != nil {
			return err
		}
		*f.value = v
	}

	if form.Password == "" {
		pw, err := app.Prompt.Secret("Password")
		if err != nil {
			return err
		}
		form.Password = pw
		if form.ConfirmPassword, err = app.Prompt.Secret("Confirm password"); err != nil {
			return err
		}
	} else if form.ConfirmPassword == "" {
		form.ConfirmPassword = form.Password
	}

	if err := app.Store.Signup(ctx, form); err != nil {
		return authFailure("registration failed", app, err)
	}

	user := app.Store.State().User
	app.printf("✓ Welcome, %s! Your account %s is ready.\n", user.FullName(), user.Email)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runLogout(cmd.Context(), app)
		},
	}
}

func runLogout(ctx context.Context, app *App) error {
	app.Store.Logout(ctx)
	app.printf("✓ Logged out\n")
	return nil
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runWhoami(app)
		},
	}
}

func runWhoami(app *App) error {
	user, err := app.requireSession()
	if err != nil {
		return err
	}
	printUser(app, user)
	return nil
}

func printUser(app *App, user *session.User) {
	app.printf("Name:   %s\n", user.FullName())
	app.printf("Email:  %s\n", user.Email)
	app.printf("Role:   %s\n", user.Role)
	if !user.CreatedAt.IsZero() {
		app.printf("Member: since %s\n", user.CreatedAt.Format("January 2006"))
	}
}

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Reload and show your profile from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runProfile(cmd.Context(), app)
		},
	}
}

func runProfile(ctx context.Context, app *App) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}
	user, err := app.Store.RefreshProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %s", gateway.MessageOf(err, err.Error()))
	}
	printUser(app, user)
	return nil
}

// NewPasswdCmd creates the passwd command
func NewPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runPasswd(cmd.Context(), app)
		},
	}
}

func runPasswd(ctx context.Context, app *App) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}

	current, err := app.Prompt.Secret("Current password")
	if err != nil {
		return err
	}
	next, err := app.Prompt.Secret("New password")
	if err != nil {
		return err
	}
	confirm, err := app.Prompt.Secret("Confirm new password")
	if err != nil {
		return err
	}
	if next != confirm {
		return errors.New("passwords do not match")
	}

	if err := app.Client.ChangePassword(ctx, client.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}); err != nil {
		return fmt.Errorf("failed to change password: %s", gateway.MessageOf(err, err.Error()))
	}
	app.printf("✓ Password updated\n")
	return nil
}
