package admingate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelflare/studio/internal/credentials"
	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

type fixture struct {
	gate  *Gate
	store *session.Store
	vault *credentials.Vault
	nav   *gateway.HistoryNavigator
	gw    *gateway.Gateway

	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]string
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.requests = append(f.requests, r)
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	f.vault = credentials.NewMemoryVault()
	f.nav = gateway.NewHistoryNavigator("/admin/verify")
	gw, err := gateway.New(srv.URL+"/api", f.vault,
		gateway.WithNavigator(f.nav),
		gateway.WithUnauthorizedHandler(func() { f.store.Expire() }),
	)
	require.NoError(t, err)
	f.gw = gw
	f.store = session.NewStore(gw, f.vault, zerolog.Nop())
	f.gate = New(f.store, gw, f.vault, f.nav, zerolog.Nop())
	return f
}

func (f *fixture) signIn(t *testing.T, role session.Role) {
	t.Helper()
	require.NoError(t, f.vault.SetToken("T1"))
	f.store.UpdateUser(session.User{ID: "1", Email: "admin@pixelflare.com", Role: role})
}

func (f *fixture) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestGuard(t *testing.T) {
	t.Run("anonymous goes to login", func(t *testing.T) {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
		assert.ErrorIs(t, f.gate.Guard(), ErrNotAuthenticated)
		assert.Equal(t, gateway.LoginPath, f.nav.Location())
	})

	t.Run("non-admin goes to dashboard", func(t *testing.T) {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
		f.signIn(t, session.RoleUser)
		assert.ErrorIs(t, f.gate.Guard(), ErrNotAdmin)
		assert.Equal(t, session.DashboardPath, f.nav.Location())
	})

	t.Run("admin stays", func(t *testing.T) {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
		f.signIn(t, session.RoleAdmin)
		assert.NoError(t, f.gate.Guard())
		assert.Equal(t, "/admin/verify", f.nav.Location())
	})
}

func TestVerify_Success(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"adminToken":"grant-1","expiresAt":"2030-01-01T00:00:00Z"}}`))
	})
	f.signIn(t, session.RoleAdmin)

	grant, err := f.gate.Verify(context.Background(), "studio-admin")
	require.NoError(t, err)
	assert.Equal(t, "grant-1", grant.AdminToken)
	assert.Equal(t, 2030, grant.ExpiresAt.Year())

	assert.Equal(t, "grant-1", f.vault.AdminSecret())
	assert.True(t, f.gate.Verified())
	assert.Equal(t, session.AdminDashboardPath, f.nav.Location())

	require.Equal(t, 1, f.requestCount())
	assert.Equal(t, "/api/admin/verify", f.requests[0].URL.Path)
	assert.Equal(t, "Bearer T1", f.requests[0].Header.Get("Authorization"))
	assert.Equal(t, "studio-admin", f.bodies[0]["adminPassword"])
}

func TestVerify_Failure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server message", http.StatusBadRequest, `{"success":false,"message":"Invalid admin password"}`, "Invalid admin password"},
		{"rejected without message", http.StatusOK, `{"success":false}`, "Verification failed"},
		{"error without message", http.StatusInternalServerError, `{}`, "Verification failed. Please check your password and try again."},
		{"success without grant", http.StatusOK, `{"success":true,"data":{}}`, "Verification failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			f.signIn(t, session.RoleAdmin)

			_, err := f.gate.Verify(context.Background(), "wrong")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, VerifyMessage(err))
			assert.Empty(t, f.vault.AdminSecret())
			assert.False(t, f.gate.Verified())
			assert.Equal(t, "T1", f.vault.Token(), "primary session survives a failed verification")
			assert.Equal(t, "/admin/verify", f.nav.Location())
		})
	}
}

func TestVerify_GuardBlocksNonAdmin(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"adminToken":"grant-1"}}`))
	})
	f.signIn(t, session.RoleUser)

	_, err := f.gate.Verify(context.Background(), "studio-admin")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, 0, f.requestCount())
	assert.Empty(t, f.vault.AdminSecret())
}

func TestVerify_EmptyPasswordNeverReachesNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.signIn(t, session.RoleAdmin)

	_, err := f.gate.Verify(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "Admin password is required", gateway.MessageOf(err, ""))
	assert.Equal(t, 0, f.requestCount())
}

func TestVerify_GrantSentOnLaterAdminRequests(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/verify":
			w.Write([]byte(`{"success":true,"data":{"adminToken":"grant-1"}}`))
		case "/api/admin/dashboard":
			if r.Header.Get(gateway.HeaderAdminSecret) != "grant-1" {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"success":false,"requiresPassword":true}`))
				return
			}
			w.Write([]byte(`{"success":true,"data":{"totalBookings":3}}`))
		default:
			w.Write([]byte(`{"success":true}`))
		}
	})
	f.signIn(t, session.RoleAdmin)

	_, err := f.gw.Get(context.Background(), "/admin/dashboard")
	require.Error(t, err)
	assert.True(t, gateway.IsKind(err, gateway.KindAdminVerificationRequired))
	assert.Equal(t, "/admin/verify", f.nav.Location())
	assert.Equal(t, "T1", f.vault.Token())

	_, err = f.gate.Verify(context.Background(), "studio-admin")
	require.NoError(t, err)

	env, err := f.gw.Get(context.Background(), "/admin/dashboard")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestAdminLogin_Success(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"token":"T9","data":{"user":{"id":"7","email":"admin@pixelflare.com","role":"admin"},"adminToken":"grant-9"}}`))
	})
	require.NoError(t, f.vault.SetToken("stale"))
	require.NoError(t, f.vault.SetAdminSecret("stale-grant"))

	user, err := f.gate.AdminLogin(context.Background(), AdminCredentials{
		Email:      "admin@pixelflare.com",
		Password:   "pw",
		AccessCode: "CODE",
	})
	require.NoError(t, err)
	assert.Equal(t, "7", user.ID)

	assert.Equal(t, "T9", f.vault.Token())
	assert.Equal(t, "grant-9", f.vault.AdminSecret())
	assert.True(t, f.store.State().IsAuthenticated)
	assert.True(t, f.store.State().User.IsAdmin())
	assert.Equal(t, session.AdminDashboardPath, f.nav.Location())

	require.Equal(t, 1, f.requestCount())
	assert.Empty(t, f.requests[0].Header.Get("Authorization"), "previous session is discarded first")
	assert.Equal(t, "CODE", f.bodies[0]["accessCode"])
}

func TestAdminLogin_Failure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Invalid admin access code"}`))
	})

	_, err := f.gate.AdminLogin(context.Background(), AdminCredentials{
		Email:      "admin@pixelflare.com",
		Password:   "pw",
		AccessCode: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid admin access code", LoginMessage(err))
	assert.Empty(t, f.vault.Token())
	assert.Empty(t, f.vault.AdminSecret())
	assert.False(t, f.store.State().IsAuthenticated)
}

func TestAdminLogin_FailureSignsOutPreviousUser(t *testing.T) {
	var phaseDuringRequest session.Phase
	var f *fixture
	f = newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		phaseDuringRequest = f.store.State().Phase()
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"message":"Invalid admin access code"}`))
	})
	f.signIn(t, session.RoleUser)

	var phases []session.Phase
	f.store.Subscribe(func(st session.State) { phases = append(phases, st.Phase()) })

	_, err := f.gate.AdminLogin(context.Background(), AdminCredentials{
		Email:      "a@b.com",
		Password:   "pw",
		AccessCode: "nope",
	})
	require.Error(t, err)

	st := f.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, "Invalid admin access code", st.Error)
	assert.Equal(t, session.Failed, st.Phase())
	assert.Empty(t, f.vault.Token())
	assert.Equal(t, session.Pending, phaseDuringRequest)
	assert.Equal(t, []session.Phase{session.Pending, session.Failed}, phases)
	assert.Equal(t, "/admin/verify", f.nav.Location())
}

func TestAdminLogin_SupersededByLogout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			w.Write([]byte(`{"success":true}`))
			return
		}
		close(started)
		<-release
		w.Write([]byte(`{"success":true,"token":"T9","data":{"user":{"id":"7","email":"admin@pixelflare.com","role":"admin"},"adminToken":"grant-9"}}`))
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.gate.AdminLogin(context.Background(), AdminCredentials{
			Email:      "admin@pixelflare.com",
			Password:   "pw",
			AccessCode: "CODE",
		})
		done <- err
	}()
	<-started
	f.store.Logout(context.Background())
	close(release)

	assert.ErrorIs(t, <-done, session.ErrSuperseded)
	assert.Equal(t, session.State{}, f.store.State())
	assert.Empty(t, f.vault.Token())
	assert.Empty(t, f.vault.AdminSecret())
}

func TestAdminLogin_MissingAccessCode(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := f.gate.AdminLogin(context.Background(), AdminCredentials{Email: "admin@pixelflare.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Admin access code is required", gateway.MessageOf(err, ""))
	assert.Equal(t, 0, f.requestCount())
}

func TestCancel(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})
	f.signIn(t, session.RoleAdmin)
	require.NoError(t, f.vault.SetAdminSecret("grant-1"))

	f.gate.Cancel(context.Background())

	assert.Empty(t, f.vault.Token())
	assert.Empty(t, f.vault.AdminSecret())
	assert.False(t, f.store.State().IsAuthenticated)
	assert.Equal(t, gateway.LoginPath, f.nav.Location())
}
