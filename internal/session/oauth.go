package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pixelflare/studio/internal/gateway"
)

// ErrMissingToken is returned when the OAuth callback carries no token.
var ErrMissingToken = errors.New("session: oauth callback without token")

const (
	oauthInvalidTokenPath = "/login?error=Invalid+token"
	oauthFailedPath       = "/login?error=Authentication+failed"
)

// GoogleAuthURL is where the browser is sent to start a Google sign-in.
// returnTo is the local page the backend redirects to with ?token=... once the
// provider flow completes; empty leaves the choice to the backend.
func GoogleAuthURL(baseURL, returnTo string) string {
	u := strings.TrimRight(baseURL, "/") + "/auth/google"
	if returnTo == "" {
		return u
	}
	return u + "?" + url.Values{"redirect": {returnTo}}.Encode()
}

// CompleteOAuth finishes a provider login from the callback URL the backend
// redirected to. It returns the path the caller should navigate to next.
//
// With a token the token is stored, the identity behind it is loaded and the
// store becomes authenticated. Without one nothing is stored.
func (s *Store) CompleteOAuth(ctx context.Context, callback *url.URL) (string, error) {
	token := ""
	if callback != nil {
		token = callback.Query().Get("token")
	}
	if token == "" {
		s.logger.Info().Msg("OAuth callback without token")
		return oauthInvalidTokenPath, ErrMissingToken
	}

	seq := s.begin()

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return "", ErrSuperseded
	}
	if err := s.vault.SetToken(token); err != nil {
		s.commitLocked(State{Error: "Failed to save session"})
		return oauthFailedPath, fmt.Errorf("failed to save authentication token: %w", err)
	}
	s.mu.Unlock()

	user, err := s.fetchIdentity(ctx)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return "", ErrSuperseded
	}
	if err != nil {
		// A 401 has already cleared the slot through the gateway; anything
		// else leaves a token we could not verify.
		if clearErr := s.vault.ClearToken(); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("Failed to clear stored token")
		}
		msg := failureMessage(err, identityRejected, identityRejected)
		s.commitLocked(State{Error: msg})
		s.logger.Info().Err(err).Msg("OAuth login failed")
		if gateway.IsKind(err, gateway.KindUnauthorized) {
			return oauthInvalidTokenPath, err
		}
		return oauthFailedPath, err
	}

	s.commitLocked(State{User: user, IsAuthenticated: true})
	s.logger.Info().Str("op", "oauth").Str("user_id", user.ID).Msg("Authenticated")
	return DashboardPath, nil
}
