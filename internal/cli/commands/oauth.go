package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/pixelflare/studio/internal/session"
)

const (
	oauthCallbackPath = "/auth/success"
	oauthWaitTimeout  = 5 * time.Minute
)

const oauthDonePage = `<!doctype html>
<html><head><title>Pixelflare Studio</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<h2>Signing you in…</h2>
<p>You can close this window and return to the terminal.</p>
</body></html>`

// runGoogleLogin performs the browser sign-in: a loopback listener stands in
// for the success page the backend redirects to with ?token=...
func runGoogleLogin(ctx context.Context, app *App, open func(string) error) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start callback listener: %w", err)
	}

	callbacks := make(chan *url.URL, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(oauthCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		select {
		case callbacks <- r.URL:
		default:
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, oauthDonePage)
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error().Err(err).Msg("Callback listener failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	returnTo := fmt.Sprintf("http://%s%s", ln.Addr().String(), oauthCallbackPath)
	authURL := session.GoogleAuthURL(app.Gateway.BaseURL(), returnTo)

	app.printf("Opening your browser to sign in with Google...\n")
	if err := open(authURL); err != nil {
		app.printf("Could not open a browser (%v). Please visit:\n  %s\n", err, authURL)
	}

	var callback *url.URL
	select {
	case callback = <-callbacks:
	case <-time.After(oauthWaitTimeout):
		return errors.New("timed out waiting for Google sign-in")
	case <-ctx.Done():
		return ctx.Err()
	}

	next, err := app.Store.CompleteOAuth(ctx, callback)
	if next != "" {
		app.Nav.HistoryNavigator.Navigate(next)
	}
	if err != nil {
		if errors.Is(err, session.ErrMissingToken) {
			return errors.New("google sign-in failed: invalid token")
		}
		return authFailure("google sign-in failed", app, err)
	}

	user := app.Store.State().User
	app.printf("✓ Logged in as %s (%s)\n", user.FullName(), user.Email)
	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
