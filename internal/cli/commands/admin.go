package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelflare/studio/internal/admingate"
	"github.com/pixelflare/studio/internal/client"
	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

// NewAdminCmd creates the admin command and its subcommands
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Studio administration",
	}

	var creds admingate.AdminCredentials
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the admin entry point",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminLogin(cmd.Context(), app, creds)
		},
	}
	login.Flags().StringVar(&creds.Email, "email", "", "Admin email (or set STUDIO_EMAIL)")
	login.Flags().StringVar(&creds.Password, "password", "", "Password (or set STUDIO_PASSWORD)")
	login.Flags().StringVar(&creds.AccessCode, "access-code", "", "Admin access code (or set STUDIO_ADMIN_ACCESS_CODE)")
	cmd.AddCommand(login)

	var adminPassword string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Confirm admin access with the admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminVerify(cmd.Context(), app, adminPassword)
		},
	}
	verify.Flags().StringVar(&adminPassword, "admin-password", "", "Admin password (or set STUDIO_ADMIN_PASSWORD)")
	cmd.AddCommand(verify)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Abandon admin verification and log out",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			app.Gate.Cancel(cmd.Context())
			app.printf("✓ Logged out\n")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminStats(cmd.Context(), app)
		},
	})

	cmd.AddCommand(newAdminUsersCmd())
	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminListUsers(cmd.Context(), app)
		},
	})

	var role string
	promote := &cobra.Command{
		Use:   "role <user-id>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminSetRole(cmd.Context(), app, args[0], role)
		},
	}
	promote.Flags().StringVar(&role, "role", "", "New role: user or admin")
	_ = promote.MarkFlagRequired("role")
	cmd.AddCommand(promote)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <user-id>",
		Short: "Delete a user and their bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runAdminDeleteUser(cmd.Context(), app, args[0])
		},
	})

	return cmd
}

func runAdminLogin(ctx context.Context, app *App, creds admingate.AdminCredentials) error {
	var err error
	if creds.Email, err = valueOr(creds.Email, "STUDIO_EMAIL", func() (string, error) {
		return app.Prompt.Input("Email", notEmpty)
	}); err != nil {
		return err
	}
	if creds.Password, err = valueOr(creds.Password, "STUDIO_PASSWORD", func() (string, error) {
		return app.Prompt.Secret("Password")
	}); err != nil {
		return err
	}
	if creds.AccessCode, err = valueOr(creds.AccessCode, "STUDIO_ADMIN_ACCESS_CODE", func() (string, error) {
		return app.Prompt.Secret("Admin access code")
	}); err != nil {
		return err
	}

	user, err := app.Gate.AdminLogin(ctx, creds)
	if err != nil {
		return fmt.Errorf("admin login failed: %s", admingate.LoginMessage(err))
	}
	app.printf("✓ Signed in to the admin area as %s (%s)\n", user.FullName(), user.Email)
	return nil
}

// guardMessage explains where the gate sent the user.
func guardMessage(err error) error {
	switch {
	case errors.Is(err, admingate.ErrNotAuthenticated):
		return errors.New("not logged in. Run 'studio login' or 'studio admin login' first")
	case errors.Is(err, admingate.ErrNotAdmin):
		return errors.New("admin access required")
	default:
		return err
	}
}

func runAdminVerify(ctx context.Context, app *App, adminPassword string) error {
	if err := app.Gate.Guard(); err != nil {
		return guardMessage(err)
	}

	adminPassword, err := valueOr(adminPassword, "STUDIO_ADMIN_PASSWORD", func() (string, error) {
		return app.Prompt.Secret("Admin password")
	})
	if err != nil {
		return err
	}

	grant, err := app.Gate.Verify(ctx, adminPassword)
	if err != nil {
		return errors.New(admingate.VerifyMessage(err))
	}
	app.printf("✓ Admin access verified until %s\n", grant.ExpiresAt.Local().Format("15:04"))
	return nil
}

// withAdmin runs fn behind the gate. When the server asks for verification
// the admin password is requested once and fn retried.
func withAdmin(ctx context.Context, app *App, fn func() error) error {
	if err := app.Gate.Guard(); err != nil {
		return guardMessage(err)
	}

	err := fn()
	if !gateway.IsKind(err, gateway.KindAdminVerificationRequired) {
		return err
	}
	if err := runAdminVerify(ctx, app, ""); err != nil {
		return err
	}
	return fn()
}

func runAdminStats(ctx context.Context, app *App) error {
	var stats *client.DashboardStats
	err := withAdmin(ctx, app, func() (err error) {
		stats, err = app.Client.DashboardStats(ctx)
		return err
	})
	if err != nil {
		return adminError("failed to load dashboard", err)
	}

	w := newTable(app)
	fmt.Fprintf(w, "Users\t%d\n", stats.TotalUsers)
	fmt.Fprintf(w, "Bookings\t%d\n", stats.TotalBookings)
	fmt.Fprintf(w, "Upcoming\t%d\n", stats.UpcomingBookings)
	fmt.Fprintf(w, "Active photographers\t%d\n", stats.ActivePhotographers)
	fmt.Fprintf(w, "Revenue\t$%.2f\n", stats.TotalRevenue)
	w.Flush()
	return nil
}

func runAdminListUsers(ctx context.Context, app *App) error {
	var users []session.User
	err := withAdmin(ctx, app, func() (err error) {
		users, err = app.Client.ListUsers(ctx)
		return err
	})
	if err != nil {
		return adminError("failed to list users", err)
	}

	w := newTable(app)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tJOINED")
	fmt.Fprintln(w, "──\t────\t─────\t────\t──────")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
	return nil
}

func runAdminSetRole(ctx context.Context, app *App, id, role string) error {
	var user *session.User
	err := withAdmin(ctx, app, func() (err error) {
		user, err = app.Client.UpdateUser(ctx, id, client.UserUpdate{Role: session.Role(role)})
		return err
	})
	if err != nil {
		return adminError("failed to update user", err)
	}
	app.printf("✓ %s is now %s\n", user.Email, user.Role)
	return nil
}

func runAdminDeleteUser(ctx context.Context, app *App, id string) error {
	err := withAdmin(ctx, app, func() error {
		return app.Client.DeleteUser(ctx, id)
	})
	if err != nil {
		return adminError("failed to delete user", err)
	}
	app.printf("✓ User %s deleted\n", id)
	return nil
}

// adminError keeps messages the gate already produced as they are.
func adminError(action string, err error) error {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return err
	}
	return apiError(action, err)
}
