// Package admingate implements the second factor that guards the admin area:
// an authenticated admin must exchange the admin password for a short-lived
// grant before admin routes will answer.
package admingate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixelflare/studio/internal/credentials"
	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

var (
	ErrNotAuthenticated = errors.New("admingate: not signed in")
	ErrNotAdmin         = errors.New("admingate: account is not an admin")
)

const (
	verifyRejected = "Verification failed"
	verifyFallback = "Verification failed. Please check your password and try again."
	loginFallback  = "Authentication failed"
)

// Grant is the time-bound admin credential issued by the backend.
type Grant struct {
	AdminToken string    `json:"adminToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// VerifyRequest is the admin verification form.
type VerifyRequest struct {
	AdminPassword string `json:"adminPassword" validate:"required"`
}

// AdminCredentials is the admin login form. The access code is checked by the
// backend, not here.
type AdminCredentials struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	AccessCode string `json:"accessCode" validate:"required"`
}

type adminLoginReply struct {
	User       session.User `json:"user"`
	AdminToken string       `json:"adminToken"`
	ExpiresAt  time.Time    `json:"expiresAt"`
}

// Gate guards entry into the admin area.
type Gate struct {
	store  *session.Store
	req    gateway.Requester
	vault  *credentials.Vault
	nav    gateway.Navigator
	logger zerolog.Logger
}

func New(store *session.Store, req gateway.Requester, vault *credentials.Vault, nav gateway.Navigator, logger zerolog.Logger) *Gate {
	return &Gate{store: store, req: req, vault: vault, nav: nav, logger: logger}
}

// Guard checks the entry condition. Visitors who are not signed in are sent
// to the login page, signed-in non-admins to their dashboard.
func (g *Gate) Guard() error {
	st := g.store.State()
	if !st.IsAuthenticated || st.User == nil {
		g.nav.Navigate(gateway.LoginPath)
		return ErrNotAuthenticated
	}
	if !st.User.IsAdmin() {
		g.nav.Navigate(session.DashboardPath)
		return ErrNotAdmin
	}
	return nil
}

// Verified reports whether an admin grant is currently held.
func (g *Gate) Verified() bool {
	return g.vault.AdminSecret() != ""
}

// Verify exchanges the admin password for a grant. On success the grant is
// kept for later admin requests and the admin dashboard is opened. On failure
// nothing is stored; Message extracts the text to show.
func (g *Gate) Verify(ctx context.Context, adminPassword string) (*Grant, error) {
	if err := g.Guard(); err != nil {
		return nil, err
	}
	form := VerifyRequest{AdminPassword: adminPassword}
	if err := session.Validate(form); err != nil {
		return nil, err
	}

	env, err := g.req.Do(ctx, http.MethodPost, gateway.AdminVerifyPath, form)
	if err != nil {
		g.logger.Info().Err(err).Msg("Admin verification failed")
		return nil, err
	}

	var grant Grant
	if err := env.Decode(&grant); err != nil || grant.AdminToken == "" {
		return nil, &gateway.Error{Kind: gateway.KindRejected, Status: env.Status, Message: env.Message, Err: err}
	}
	if err := g.vault.SetAdminSecret(grant.AdminToken); err != nil {
		return nil, fmt.Errorf("failed to store admin grant: %w", err)
	}

	g.logger.Info().Time("expires_at", grant.ExpiresAt).Msg("Admin access verified")
	g.nav.Navigate(session.AdminDashboardPath)
	return &grant, nil
}

// AdminLogin signs in through the admin login page: primary credentials,
// the access code and the admin grant in one exchange. Any previous session
// is discarded first. The exchange is a regular session transition, so a
// failure leaves the store signed out with the error recorded.
func (g *Gate) AdminLogin(ctx context.Context, creds AdminCredentials) (*session.User, error) {
	if err := session.Validate(creds); err != nil {
		return nil, err
	}
	if err := g.vault.ClearAll(); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to clear stored credentials")
	}

	var user *session.User
	err := g.store.Authenticate(ctx, "admin_login", func(ctx context.Context) (*session.SignIn, error) {
		env, err := g.req.Do(ctx, http.MethodPost, "/admin/login", creds)
		if err != nil {
			return nil, err
		}

		var reply adminLoginReply
		if err := env.Decode(&reply); err != nil || env.Token == "" || reply.AdminToken == "" || reply.User.ID == "" {
			return nil, &gateway.Error{Kind: gateway.KindRejected, Status: env.Status, Message: env.Message, Err: err}
		}
		user = &reply.User
		return &session.SignIn{
			Token: env.Token,
			User:  user,
			Persist: func() error {
				if err := g.vault.SetAdminSecret(reply.AdminToken); err != nil {
					return fmt.Errorf("failed to store admin grant: %w", err)
				}
				return nil
			},
		}, nil
	}, loginFallback)
	if err != nil {
		g.logger.Info().Err(err).Msg("Admin login failed")
		return nil, err
	}

	g.logger.Info().Str("user_id", user.ID).Msg("Admin signed in")
	g.nav.Navigate(session.AdminDashboardPath)
	return user, nil
}

// Cancel abandons verification: the whole session is ended and the login
// page opened.
func (g *Gate) Cancel(ctx context.Context) {
	g.store.Logout(ctx)
	g.nav.Navigate(gateway.LoginPath)
}

// VerifyMessage is the text to show for a failed Verify.
func VerifyMessage(err error) string {
	if gateway.IsKind(err, gateway.KindRejected) {
		return gateway.MessageOf(err, verifyRejected)
	}
	return gateway.MessageOf(err, verifyFallback)
}

// LoginMessage is the text to show for a failed AdminLogin.
func LoginMessage(err error) string {
	return gateway.MessageOf(err, loginFallback)
}
