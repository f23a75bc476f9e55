package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pixelflare/studio/internal/credentials"
	"github.com/pixelflare/studio/internal/gateway"
)

var (
	// ErrSuperseded is returned when a response arrives after a newer
	// transition (another login, a logout) has already been started.
	ErrSuperseded = errors.New("session: response superseded by a newer request")

	// ErrAlreadyRestored is returned by every RestoreSession call after the first.
	ErrAlreadyRestored = errors.New("session: restore already attempted")
)

const (
	loginRejected    = "Login failed"
	loginFallback    = "Invalid credentials"
	signupFallback   = "Registration failed"
	identityRejected = "Failed to load user profile"
)

// Store holds the authentication state of one client and drives its
// transitions. Construct one at startup and hand it to whatever needs it.
type Store struct {
	req    gateway.Requester
	vault  *credentials.Vault
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	version  uint64
	restored bool

	// deliverMu serializes delivery. delivered is the newest version handed
	// to subscribers; older snapshots that lose the race are not delivered.
	deliverMu sync.Mutex
	delivered uint64

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func NewStore(req gateway.Requester, vault *credentials.Vault, logger zerolog.Logger) *Store {
	return &Store{
		req:    req,
		vault:  vault,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with every new state. Callbacks run
// synchronously after each transition. They may read State, subscribe or
// unsubscribe, but must not start another transition on the same store from
// inside the callback.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// commitLocked installs next and publishes it. Must be called with mu held;
// returns with mu released.
func (s *Store) commitLocked(next State) {
	s.state = next
	s.version++
	version := s.version
	snapshot := next.clone()
	s.mu.Unlock()

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.subsMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot.clone())
	}
}

// begin moves the store to Pending and returns the sequence number the
// eventual response must still hold to be applied.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.commitLocked(State{Loading: true})
	return seq
}

// Login authenticates with email and password. The error, if any, has
// already been recorded in the state; callers may display or ignore it.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	if err := Validate(creds); err != nil {
		return err
	}

	seq := s.begin()
	env, err := s.req.Do(ctx, http.MethodPost, "/auth/login", creds)
	return s.resolveAuth(seq, "login", env, err, loginRejected, loginFallback)
}

// Signup registers a new account. Forms that fail local validation (missing
// fields, mismatched confirmation) never reach the network and leave the
// state untouched.
func (s *Store) Signup(ctx context.Context, req SignupRequest) error {
	if err := Validate(req); err != nil {
		return err
	}

	seq := s.begin()
	env, err := s.req.Do(ctx, http.MethodPost, "/auth/register", req)
	return s.resolveAuth(seq, "signup", env, err, signupFallback, signupFallback)
}

func (s *Store) resolveAuth(seq uint64, op string, env *gateway.Envelope, err error, rejected, fallback string) error {
	var res *SignIn
	if err == nil {
		var user *User
		if user, err = decodeUser(env, rejected); err == nil {
			res = &SignIn{Token: env.Token, User: user}
		}
	}
	return s.finish(seq, op, res, err, rejected, fallback)
}

// SignIn is the outcome of a sign-in exchange.
type SignIn struct {
	Token string
	User  *User
	// Persist stores further credentials that belong to this sign-in. It
	// runs after the token is saved and only if the exchange is still current.
	Persist func() error
}

// Authenticate runs a sign-in exchange other than the password login (the
// admin entry point) as a regular transition: the store goes Pending, a newer
// transition supersedes it, and failures are recorded with fallback as the
// message of last resort.
func (s *Store) Authenticate(ctx context.Context, op string, exchange func(context.Context) (*SignIn, error), fallback string) error {
	seq := s.begin()
	res, err := exchange(ctx)
	if err == nil && (res == nil || res.User == nil) {
		err = &gateway.Error{Kind: gateway.KindRejected, Message: fallback}
	}
	return s.finish(seq, op, res, err, fallback, fallback)
}

func (s *Store) finish(seq uint64, op string, res *SignIn, err error, rejected, fallback string) error {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug().Str("op", op).Uint64("seq", seq).Msg("Discarding superseded auth response")
		return ErrSuperseded
	}

	if err == nil && res.Token != "" {
		if saveErr := s.vault.SetToken(res.Token); saveErr != nil {
			err = fmt.Errorf("failed to save authentication token: %w", saveErr)
		}
	}
	if err == nil && res.Persist != nil {
		err = res.Persist()
	}

	if err != nil {
		msg := failureMessage(err, rejected, fallback)
		s.commitLocked(State{Error: msg})
		s.logger.Info().Str("op", op).Str("reason", msg).Msg("Authentication failed")
		return err
	}

	s.commitLocked(State{User: res.User, IsAuthenticated: true})
	s.logger.Info().Str("op", op).Str("user_id", res.User.ID).Msg("Authenticated")
	return nil
}

// Logout ends the session. The server is told on a best-effort basis; local
// credentials and state are cleared whatever the server says.
//
// Logout is ordered by when it was called: responses to earlier transitions
// are dropped, while a sign-in started during the server call keeps the
// token and state it produces.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	token := s.vault.Token()
	s.mu.Unlock()

	if _, err := s.req.Do(ctx, http.MethodGet, "/auth/logout", nil); err != nil {
		s.logger.Warn().Err(err).Msg("Logout request failed")
	}

	s.mu.Lock()
	if s.vault.Token() == token {
		if err := s.vault.ClearAll(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to clear stored credentials")
		}
	}
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug().Uint64("seq", seq).Msg("Newer sign-in started during logout")
		return
	}
	s.commitLocked(State{})
}

// Expire drops an authenticated session whose credentials were revoked
// outside the store, as the gateway does on a 401. Transitions in flight are
// left to resolve on their own.
func (s *Store) Expire() {
	s.mu.Lock()
	if !s.state.IsAuthenticated {
		s.mu.Unlock()
		return
	}
	s.seq++
	s.commitLocked(State{})
	s.logger.Info().Msg("Session expired")
}

// UpdateUser replaces the current identity after an out-of-band refresh.
func (s *Store) UpdateUser(user User) {
	s.mu.Lock()
	s.commitLocked(State{User: &user, IsAuthenticated: true})
}

// RestoreSession reloads the identity behind a persisted token. It is meant
// to run once at startup; only the first call does anything. Without a
// stored token it is a no-op. Any failure drops the token.
func (s *Store) RestoreSession(ctx context.Context) error {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return ErrAlreadyRestored
	}
	s.restored = true
	s.mu.Unlock()

	if s.vault.Token() == "" {
		return nil
	}

	seq := s.begin()
	user, err := s.fetchIdentity(ctx)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return ErrSuperseded
	}

	if err != nil {
		if clearErr := s.vault.ClearToken(); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("Failed to clear stored token")
		}
		s.commitLocked(State{})
		s.logger.Info().Err(err).Msg("Stored session is no longer valid")
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.commitLocked(State{User: user, IsAuthenticated: true})
	return nil
}

// RefreshProfile re-reads the current identity and applies it with UpdateUser.
func (s *Store) RefreshProfile(ctx context.Context) (*User, error) {
	user, err := s.fetchIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s.UpdateUser(*user)
	return user, nil
}

func (s *Store) fetchIdentity(ctx context.Context) (*User, error) {
	env, err := s.req.Do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(env, identityRejected)
}

// decodeUser pulls the identity out of a successful reply. A reply without
// one is treated as a rejection.
func decodeUser(env *gateway.Envelope, rejected string) (*User, error) {
	reject := func() error {
		return &gateway.Error{Kind: gateway.KindRejected, Status: env.Status, Message: env.Message}
	}
	if !env.HasPayload() {
		return nil, reject()
	}

	var user User
	if err := env.Decode(&user); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindRejected, Status: env.Status, Message: rejected, Err: err}
	}
	if user.ID == "" && user.Email == "" {
		return nil, reject()
	}
	return &user, nil
}

// failureMessage picks the text shown for a failed transition: the server's
// own message when it gave one, else the operation's fallback.
func failureMessage(err error, rejected, fallback string) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		if gwErr.Message != "" {
			return gwErr.Message
		}
		if gwErr.Kind == gateway.KindRejected {
			return rejected
		}
		return fallback
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
