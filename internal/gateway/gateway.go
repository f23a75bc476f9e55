package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pixelflare/studio/internal/credentials"
)

const (
	AdminPrefix     = "/admin"
	LoginPath       = "/login"
	AdminVerifyPath = "/admin/verify"

	HeaderAdminSecret = "X-Admin-Secret"
	HeaderRequestID   = "X-Request-ID"

	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 10 << 20
)

// Requester is what the session store, the admin gate and the typed client
// need from the gateway.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*Envelope, error)
}

// Gateway wraps every outbound call to the backend: it attaches credentials,
// normalizes replies and reacts to authorization failures.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	vault      *credentials.Vault
	nav        Navigator
	logger     zerolog.Logger

	onUnauthorized func()

	// navMu makes the "already on the login page?" check and the redirect
	// atomic, so concurrent 401s produce a single navigation.
	navMu sync.Mutex
}

type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

func WithNavigator(nav Navigator) Option {
	return func(g *Gateway) { g.nav = nav }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithUnauthorizedHandler registers fn to run after a 401 has cleared the
// credentials, so whoever holds the signed-in state can drop it too.
func WithUnauthorizedHandler(fn func()) Option {
	return func(g *Gateway) { g.onUnauthorized = fn }
}

// New creates a gateway for the API rooted at baseURL (e.g.
// "http://localhost:8080/api"). Paths passed to Do are relative to it.
func New(baseURL string, vault *credentials.Vault, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	if vault == nil {
		return nil, fmt.Errorf("credential vault is required")
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		vault:      vault,
		nav:        NewHistoryNavigator("/"),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// URL resolves an API path against the base URL.
func (g *Gateway) URL(path string) string {
	return g.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (g *Gateway) Navigator() Navigator {
	return g.nav
}

// IsAdminPath reports whether path is under the admin route prefix.
// "/admin" and "/admin/..." match, "/administrators" does not.
func IsAdminPath(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.TrimLeft(path, "/")
	return path == AdminPrefix || strings.HasPrefix(path, AdminPrefix+"/")
}

// Do sends one request and returns the normalized reply. Any non-nil error
// is a *Error.
func (g *Gateway) Do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	admin := IsAdminPath(path)

	req, err := g.newRequest(ctx, method, path, body, admin)
	if err != nil {
		return nil, err
	}
	requestID := req.Header.Get(HeaderRequestID)

	g.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Bool("admin", admin).
		Msg("API request")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug().Err(err).Str("request_id", requestID).Str("path", path).Msg("API network error")
		return nil, &Error{
			Kind:    KindTransport,
			Message: "network error",
			Method:  method,
			Path:    path,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{
			Kind:    KindTransport,
			Status:  resp.StatusCode,
			Message: "failed to read response",
			Method:  method,
			Path:    path,
			Err:     err,
		}
	}

	g.logger.Debug().
		Str("request_id", requestID).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API response")

	return g.interpret(method, path, admin, resp.StatusCode, raw)
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any, admin bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, ValidationError("failed to marshal request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.URL(path), reader)
	if err != nil {
		return nil, ValidationError("failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	if token := g.vault.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if admin {
		if secret := g.vault.AdminSecret(); secret != "" {
			req.Header.Set(HeaderAdminSecret, secret)
		}
	}

	return req, nil
}

func (g *Gateway) interpret(method, path string, admin bool, status int, body []byte) (*Envelope, error) {
	reply, isObject := parseReply(body)

	fail := func(kind Kind) *Error {
		return &Error{Kind: kind, Status: status, Message: reply.message(), Method: method, Path: path}
	}

	if status >= 200 && status < 300 {
		if isObject && reply.Success != nil && !*reply.Success {
			return nil, fail(KindRejected)
		}
		env := &Envelope{Status: status}
		if isObject {
			env.Token = reply.Token
			env.Message = reply.message()
			env.Payload = reply.payload(body)
		} else if len(bytes.TrimSpace(body)) > 0 {
			env.Payload = json.RawMessage(bytes.TrimSpace(body))
		}
		return env, nil
	}

	if status == http.StatusForbidden && admin && reply.RequiresPassword {
		g.logger.Info().Str("path", path).Msg("Admin verification required, redirecting")
		g.nav.Navigate(AdminVerifyPath)
		return nil, fail(KindAdminVerificationRequired)
	}

	if status == http.StatusUnauthorized {
		g.handleUnauthorized(path)
		return nil, fail(KindUnauthorized)
	}

	return nil, fail(kindForStatus(status))
}

// handleUnauthorized drops both credentials and sends the user to the login
// entry point unless they are already there.
func (g *Gateway) handleUnauthorized(path string) {
	if err := g.vault.ClearAll(); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to clear credentials after 401")
	}
	if g.onUnauthorized != nil {
		g.onUnauthorized()
	}

	g.navMu.Lock()
	defer g.navMu.Unlock()

	location := g.nav.Location()
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	if strings.Contains(location, LoginPath) {
		return
	}

	g.logger.Info().Str("path", path).Msg("Session rejected by server, redirecting to login")
	g.nav.Navigate(LoginPath)
}

// Get, Post, Put and Delete are shorthands over Do.

func (g *Gateway) Get(ctx context.Context, path string) (*Envelope, error) {
	return g.Do(ctx, http.MethodGet, path, nil)
}

func (g *Gateway) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return g.Do(ctx, http.MethodPost, path, body)
}

func (g *Gateway) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return g.Do(ctx, http.MethodPut, path, body)
}

func (g *Gateway) Delete(ctx context.Context, path string) (*Envelope, error) {
	return g.Do(ctx, http.MethodDelete, path, nil)
}
