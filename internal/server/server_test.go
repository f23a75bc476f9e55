package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/config"
	"github.com/pixelflare/studio/internal/models"
)

const (
	testAdminPassword = "studio-admin-pw"
	testAccessCode    = "PF-ACCESS-1"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Port: "0", CORSOrigins: []string{"http://localhost:5173"}},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			TokenTTL:        time.Hour,
			AdminPassword:   testAdminPassword,
			AdminAccessCode: testAccessCode,
			AdminGrantTTL:   30 * time.Minute,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "studio.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s, err := NewWithDB(testConfig(), db, zerolog.Nop())
	require.NoError(t, err)
	return s
}

type reply struct {
	status int
	body   map[string]any
}

func (r reply) data() map[string]any {
	d, _ := r.body["data"].(map[string]any)
	return d
}

func (r reply) list() []any {
	l, _ := r.body["data"].([]any)
	return l
}

type call struct {
	method, path string
	token        string
	adminSecret  string
	body         any
}

func (s *Server) do(t *testing.T, c call) reply {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.adminSecret != "" {
		req.Header.Set(headerAdminSecret, c.adminSecret)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return reply{status: w.Code, body: body}
}

// setupAdmin creates the first admin and returns its bearer token.
func (s *Server) setupAdmin(t *testing.T) string {
	t.Helper()
	r := s.do(t, call{method: http.MethodPost, path: "/api/setup", body: map[string]string{
		"email": "admin@pixelflare.com", "password": "admin123", "firstName": "Ada",
	}})
	require.Equal(t, http.StatusOK, r.status, r.body)
	return r.body["token"].(string)
}

func (s *Server) registerUser(t *testing.T, email string) (string, string) {
	t.Helper()
	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"firstName": "Jane", "lastName": "Doe", "email": email, "password": "secret1",
	}})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	user := r.body["user"].(map[string]any)
	return r.body["token"].(string), user["id"].(string)
}

func (s *Server) verifyAdmin(t *testing.T, token string) string {
	t.Helper()
	r := s.do(t, call{method: http.MethodPost, path: "/api/admin/verify", token: token,
		body: map[string]string{"adminPassword": testAdminPassword}})
	require.Equal(t, http.StatusOK, r.status, r.body)
	return r.data()["adminToken"].(string)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	r := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "online", r.body["status"])
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"firstName": "Jane", "lastName": "Doe", "email": "Jane@Example.com", "password": "secret1",
	}})
	require.Equal(t, http.StatusCreated, r.status)
	assert.Equal(t, true, r.body["success"])
	assert.NotEmpty(t, r.body["token"])
	user := r.body["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "passwordHash")

	t.Run("duplicate email", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"firstName": "J", "lastName": "D", "email": "jane@example.com", "password": "secret1",
		}})
		assert.Equal(t, http.StatusConflict, r.status)
		assert.Equal(t, "Email already registered", r.body["message"])
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"firstName": "J", "lastName": "D", "email": "j2@example.com", "password": "secret1", "confirmPassword": "other",
		}})
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Passwords do not match", r.body["message"])
	})

	t.Run("missing field named by json key", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"lastName": "D", "email": "j3@example.com", "password": "secret1",
		}})
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "firstName is required", r.body["message"])
	})
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, "jane@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		message  string
	}{
		{"success", "jane@example.com", "secret1", http.StatusOK, ""},
		{"wrong password", "jane@example.com", "nope", http.StatusBadRequest, "Invalid credentials"},
		{"unknown email", "ghost@example.com", "secret1", http.StatusBadRequest, "Invalid credentials"},
		{"malformed email", "not-an-email", "secret1", http.StatusBadRequest, "Please enter a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.do(t, call{method: http.MethodPost, path: "/api/auth/login",
				body: map[string]string{"email": tt.email, "password": tt.password}})
			assert.Equal(t, tt.status, r.status)
			if tt.message != "" {
				assert.Equal(t, false, r.body["success"])
				assert.Equal(t, tt.message, r.body["message"])
			} else {
				assert.NotEmpty(t, r.body["token"])
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t)
	token, id := s.registerUser(t, "jane@example.com")

	r := s.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: token})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, id, r.data()["id"])

	r = s.do(t, call{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid or expired token", r.body["message"])
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.registerUser(t, "jane@example.com")

	r := s.do(t, call{method: http.MethodPut, path: "/api/auth/change-password", token: token,
		body: map[string]string{"currentPassword": "wrong", "newPassword": "secret2"}})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Current password is incorrect", r.body["message"])

	r = s.do(t, call{method: http.MethodPut, path: "/api/auth/change-password", token: token,
		body: map[string]string{"currentPassword": "secret1", "newPassword": "secret2"}})
	assert.Equal(t, http.StatusOK, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/login",
		body: map[string]string{"email": "jane@example.com", "password": "secret2"}})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestSetupOnlyOnce(t *testing.T) {
	s := newTestServer(t)
	s.setupAdmin(t)

	r := s.do(t, call{method: http.MethodPost, path: "/api/setup", body: map[string]string{
		"email": "second@pixelflare.com", "password": "admin123", "firstName": "B",
	}})
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "Setup already completed", r.body["message"])
}

func TestAdminGrant(t *testing.T) {
	s := newTestServer(t)
	token := s.setupAdmin(t)

	t.Run("missing grant asks for verification", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, true, r.body["requiresPassword"])
		assert.Equal(t, "Admin verification required", r.body["message"])
	})

	t.Run("wrong admin password", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/admin/verify", token: token,
			body: map[string]string{"adminPassword": "nope"}})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, "Invalid admin password", r.body["message"])
		assert.NotContains(t, r.body, "requiresPassword")
	})

	t.Run("unknown grant", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token, adminSecret: "forged"})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, true, r.body["requiresPassword"])
	})

	secret := s.verifyAdmin(t, token)

	t.Run("grant admits admin routes", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token, adminSecret: secret})
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.EqualValues(t, 1, r.data()["totalUsers"])
	})

	t.Run("grant is bound to its user", func(t *testing.T) {
		hash, err := auth.HashPassword("other123")
		require.NoError(t, err)
		other := &models.User{Email: "other-admin@pixelflare.com", PasswordHash: hash, Role: models.RoleAdmin}
		require.NoError(t, s.db.Create(other).Error)

		r := s.do(t, call{method: http.MethodPost, path: "/api/auth/login",
			body: map[string]string{"email": "other-admin@pixelflare.com", "password": "other123"}})
		require.Equal(t, http.StatusOK, r.status)

		r = s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: r.body["token"].(string), adminSecret: secret})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, true, r.body["requiresPassword"])
	})

	t.Run("expired grant asks again", func(t *testing.T) {
		s.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { s.now = time.Now }()

		r := s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token, adminSecret: secret})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, true, r.body["requiresPassword"])
	})

	t.Run("logout revokes grants", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/auth/logout", token: token})
		assert.Equal(t, http.StatusOK, r.status)

		r = s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token, adminSecret: secret})
		assert.Equal(t, http.StatusForbidden, r.status)
		assert.Equal(t, true, r.body["requiresPassword"])
	})
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t)
	s.setupAdmin(t)
	token, _ := s.registerUser(t, "jane@example.com")

	r := s.do(t, call{method: http.MethodGet, path: "/api/admin/users", token: token})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "Admin access required", r.body["message"])
	assert.NotContains(t, r.body, "requiresPassword")

	r = s.do(t, call{method: http.MethodPost, path: "/api/admin/verify", token: token,
		body: map[string]string{"adminPassword": testAdminPassword}})
	assert.Equal(t, http.StatusForbidden, r.status)
}

func TestLogoutWithoutToken(t *testing.T) {
	s := newTestServer(t)
	r := s.do(t, call{method: http.MethodGet, path: "/api/auth/logout"})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, true, r.body["success"])
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)
	s.setupAdmin(t)
	s.registerUser(t, "jane@example.com")

	tests := []struct {
		name       string
		email      string
		password   string
		accessCode string
		status     int
		message    string
	}{
		{"wrong access code", "admin@pixelflare.com", "admin123", "nope", http.StatusForbidden, "Invalid admin access code"},
		{"wrong password", "admin@pixelflare.com", "nope", testAccessCode, http.StatusBadRequest, "Invalid credentials"},
		{"customer account", "jane@example.com", "secret1", testAccessCode, http.StatusForbidden, "Admin access required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.do(t, call{method: http.MethodPost, path: "/api/admin/login", body: map[string]string{
				"email": tt.email, "password": tt.password, "accessCode": tt.accessCode,
			}})
			assert.Equal(t, tt.status, r.status)
			assert.Equal(t, tt.message, r.body["message"])
		})
	}

	t.Run("success", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/admin/login", body: map[string]string{
			"email": "admin@pixelflare.com", "password": "admin123", "accessCode": testAccessCode,
		}})
		require.Equal(t, http.StatusOK, r.status, r.body)
		token := r.body["token"].(string)
		secret := r.data()["adminToken"].(string)
		assert.NotEmpty(t, r.data()["expiresAt"])
		assert.Equal(t, "admin", r.data()["user"].(map[string]any)["role"])

		r = s.do(t, call{method: http.MethodGet, path: "/api/admin/users", token: token, adminSecret: secret})
		assert.Equal(t, http.StatusOK, r.status)
		assert.Len(t, r.list(), 2)
	})
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)
	token := s.setupAdmin(t)
	secret := s.verifyAdmin(t, token)
	_, janeID := s.registerUser(t, "jane@example.com")

	admin := func(method, path string, body any) reply {
		return s.do(t, call{method: method, path: path, token: token, adminSecret: secret, body: body})
	}

	r := admin(http.MethodPut, "/api/admin/users/"+janeID, map[string]string{"role": "admin", "firstName": "Janet"})
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, "admin", r.data()["role"])
	assert.Equal(t, "Janet", r.data()["firstName"])

	r = admin(http.MethodPut, "/api/admin/users/"+janeID, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = admin(http.MethodGet, "/api/admin/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "User not found", r.body["message"])

	me := s.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: token})
	r = admin(http.MethodDelete, "/api/admin/users/"+me.data()["id"].(string), nil)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Cannot delete yourself", r.body["message"])

	r = admin(http.MethodDelete, "/api/admin/users/"+janeID, nil)
	assert.Equal(t, http.StatusOK, r.status)
	r = admin(http.MethodGet, "/api/admin/users/"+janeID, nil)
	assert.Equal(t, http.StatusNotFound, r.status)
}

// seedCatalog creates one service and one add-on through the API.
func (s *Server) seedCatalog(t *testing.T, adminToken string) (serviceID, addOnID string) {
	t.Helper()
	r := s.do(t, call{method: http.MethodPost, path: "/api/services", token: adminToken, body: map[string]any{
		"name": "Portrait Session", "basePrice": 150, "durationMinutes": 60,
	}})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	serviceID = r.data()["id"].(string)

	r = s.do(t, call{method: http.MethodPost, path: "/api/additional-services", token: adminToken, body: map[string]any{
		"name": "Printed album", "price": 50,
	}})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	addOnID = r.data()["id"].(string)
	return serviceID, addOnID
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.setupAdmin(t)
	userToken, _ := s.registerUser(t, "jane@example.com")
	serviceID, _ := s.seedCatalog(t, adminToken)

	t.Run("customers cannot write", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/services", token: userToken, body: map[string]any{
			"name": "Sneaky", "basePrice": 1, "durationMinutes": 10,
		}})
		assert.Equal(t, http.StatusForbidden, r.status)
	})

	t.Run("public listing", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/services"})
		require.Equal(t, http.StatusOK, r.status)
		assert.Len(t, r.list(), 1)
	})

	t.Run("retired entries are hidden", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPut, path: "/api/services/" + serviceID, token: adminToken, body: map[string]any{
			"name": "Portrait Session", "basePrice": 175, "durationMinutes": 60, "isActive": false,
		}})
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.Equal(t, false, r.data()["isActive"])
		assert.EqualValues(t, 175, r.data()["basePrice"])

		r = s.do(t, call{method: http.MethodGet, path: "/api/services"})
		assert.Empty(t, r.list())

		r = s.do(t, call{method: http.MethodGet, path: "/api/services?all=true", token: adminToken})
		assert.Len(t, r.list(), 1)
	})

	t.Run("validation", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/photographers", token: adminToken, body: map[string]any{
			"name": "Sam", "role": "Lead", "location": "Austin", "bio": "short", "specialization": "Weddings",
		}})
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "bio must be at least 10", r.body["message"])
	})

	t.Run("photographer lifecycle", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/photographers", token: adminToken, body: map[string]any{
			"name": "Sam Lee", "role": "Lead", "location": "Austin", "bio": "Ten years of weddings.", "specialization": "Weddings",
		}})
		require.Equal(t, http.StatusCreated, r.status, r.body)
		id := r.data()["id"].(string)
		assert.EqualValues(t, 5, r.data()["rating"])

		r = s.do(t, call{method: http.MethodDelete, path: "/api/photographers/" + id, token: adminToken})
		assert.Equal(t, http.StatusOK, r.status)

		r = s.do(t, call{method: http.MethodGet, path: "/api/photographers/" + id})
		assert.Equal(t, http.StatusNotFound, r.status)
		assert.Equal(t, "Photographer not found", r.body["message"])
	})
}

func TestBookings(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.setupAdmin(t)
	serviceID, addOnID := s.seedCatalog(t, adminToken)
	janeToken, _ := s.registerUser(t, "jane@example.com")
	bobToken, _ := s.registerUser(t, "bob@example.com")

	t.Run("price quote", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/bookings/calculate", token: janeToken, body: map[string]any{
			"serviceId": serviceID, "hours": 2, "additionalServiceIds": []string{addOnID},
		}})
		require.Equal(t, http.StatusOK, r.status, r.body)
		q := r.data()
		assert.EqualValues(t, 300, q["basePrice"])
		assert.EqualValues(t, 50, q["addOns"])
		assert.EqualValues(t, 350, q["subtotal"])
		assert.EqualValues(t, 28, q["tax"])
		assert.EqualValues(t, 378, q["total"])
		assert.Equal(t, "USD", q["currency"])
	})

	t.Run("unknown add-on", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodPost, path: "/api/bookings/calculate", token: janeToken, body: map[string]any{
			"serviceId": serviceID, "additionalServiceIds": []string{"missing"},
		}})
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Additional service not found", r.body["message"])
	})

	booking := map[string]any{
		"serviceId": serviceID, "date": "2099-06-01", "time": "14:30", "hours": 2,
		"location": "Zilker Park", "additionalServiceIds": []string{addOnID},
	}
	r := s.do(t, call{method: http.MethodPost, path: "/api/bookings", token: janeToken, body: booking})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	id := r.data()["id"].(string)
	assert.Equal(t, "upcoming", r.data()["status"])
	assert.Equal(t, "Portrait Session", r.data()["service"])
	assert.EqualValues(t, 378, r.data()["price"])
	assert.Equal(t, []any{addOnID}, r.data()["additionalServiceIds"])

	t.Run("past date", func(t *testing.T) {
		past := map[string]any{"serviceId": serviceID, "date": "2001-01-01", "time": "10:00", "location": "X"}
		r := s.do(t, call{method: http.MethodPost, path: "/api/bookings", token: janeToken, body: past})
		assert.Equal(t, http.StatusBadRequest, r.status)
	})

	t.Run("other customers see 404", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/bookings/" + id, token: bobToken})
		assert.Equal(t, http.StatusNotFound, r.status)
		r = s.do(t, call{method: http.MethodGet, path: "/api/bookings", token: bobToken})
		assert.Empty(t, r.list())
	})

	t.Run("admins see every booking", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodGet, path: "/api/bookings", token: adminToken})
		assert.Len(t, r.list(), 1)
	})

	t.Run("customers may only cancel", func(t *testing.T) {
		update := map[string]any{}
		for k, v := range booking {
			update[k] = v
		}
		update["status"] = "completed"
		r := s.do(t, call{method: http.MethodPut, path: "/api/bookings/" + id, token: janeToken, body: update})
		assert.Equal(t, http.StatusForbidden, r.status)

		update["status"] = "cancelled"
		r = s.do(t, call{method: http.MethodPut, path: "/api/bookings/" + id, token: janeToken, body: update})
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.Equal(t, "cancelled", r.data()["status"])

		update["status"] = "upcoming"
		r = s.do(t, call{method: http.MethodPut, path: "/api/bookings/" + id, token: janeToken, body: update})
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Only upcoming bookings can be changed", r.body["message"])
	})

	t.Run("delete", func(t *testing.T) {
		r := s.do(t, call{method: http.MethodDelete, path: "/api/bookings/" + id, token: bobToken})
		assert.Equal(t, http.StatusNotFound, r.status)
		r = s.do(t, call{method: http.MethodDelete, path: "/api/bookings/" + id, token: janeToken})
		assert.Equal(t, http.StatusOK, r.status)
	})
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.setupAdmin(t)
	secret := s.verifyAdmin(t, adminToken)
	serviceID, _ := s.seedCatalog(t, adminToken)
	token, _ := s.registerUser(t, "jane@example.com")

	for _, date := range []string{"2099-01-10", "2099-01-20", "2099-02-05"} {
		r := s.do(t, call{method: http.MethodPost, path: "/api/bookings", token: token, body: map[string]any{
			"serviceId": serviceID, "date": date, "time": "09:00", "location": "Studio",
		}})
		require.Equal(t, http.StatusCreated, r.status, r.body)
	}

	r := s.do(t, call{method: http.MethodGet, path: "/api/admin/analytics/revenue", token: adminToken, adminSecret: secret})
	require.Equal(t, http.StatusOK, r.status, r.body)
	byMonth := r.data()["byMonth"].([]any)
	require.Len(t, byMonth, 2)
	jan := byMonth[0].(map[string]any)
	assert.Equal(t, "2099-01", jan["month"])
	assert.EqualValues(t, 324, jan["revenue"])
	assert.EqualValues(t, 486, r.data()["total"])

	r = s.do(t, call{method: http.MethodGet, path: "/api/admin/analytics/bookings", token: adminToken, adminSecret: secret})
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.EqualValues(t, 3, r.data()["byStatus"].(map[string]any)["upcoming"])
	byService := r.data()["byService"].([]any)
	require.Len(t, byService, 1)
	assert.Equal(t, "Portrait Session", byService[0].(map[string]any)["name"])

	r = s.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", token: adminToken, adminSecret: secret})
	require.Equal(t, http.StatusOK, r.status)
	assert.EqualValues(t, 3, r.data()["upcomingBookings"])
	assert.EqualValues(t, 486, r.data()["totalRevenue"])
}
