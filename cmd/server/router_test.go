package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/account-api/internal/api"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			URL:    "accounts.db",
		},
		Auth: config.AuthConfig{
			SecretKey:                "router-test-secret-key-0123456789abcdef",
			Issuer:                   "account-api",
			Audience:                 "account-clients",
			AccessTokenExpiryMinutes: 15,
			BcryptCost:               bcrypt.MinCost,
			Lockout:                  config.LockoutConfig{MaxFailedAttempts: 3, DurationMinutes: 5},
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 600, Burst: 50},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*application, http.Handler) {
	t.Helper()

	app, err := newApplication(cfg, testdb.DiscardLogger(), testdb.OpenSQLite(t))
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	return app, app.setupRouter()
}

func send(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, router http.Handler, username, email string) api.AuthResponse {
	t.Helper()

	w := send(t, router, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
		FullName:        "Ada Lovelace",
		PhoneNumber:     "+15550100",
		Email:           email,
		Username:        username,
		Password:        "analytical",
		ConfirmPassword: "analytical",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "/api/users/"+body.ID.String(), w.Header().Get("Location"))
	return body
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()

	_, router := newTestApp(t, testConfig(t))

	ada := register(t, router, "ada", "ada@example.com")
	assert.NotEmpty(t, ada.AccessToken)

	t.Run("duplicate email is a conflict naming the field", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
			FullName:        "Imposter",
			PhoneNumber:     "+15550199",
			Email:           "ADA@example.com",
			Username:        "imposter",
			Password:        "analytical",
			ConfirmPassword: "analytical",
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		var body shared.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "email", body.Field)
		assert.NotEmpty(t, body.TraceID)
	})

	t.Run("login", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/api/users/login", "", api.LoginRequest{
			Username: "ada", Password: "analytical",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var body api.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, ada.ID, body.ID)
	})

	t.Run("login with wrong password and unknown user look the same", func(t *testing.T) {
		wrong := send(t, router, http.MethodPost, "/api/users/login", "", api.LoginRequest{
			Username: "ada", Password: "not-it",
		})
		unknown := send(t, router, http.MethodPost, "/api/users/login", "", api.LoginRequest{
			Username: "nobody", Password: "not-it",
		})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)

		var a, b shared.ErrorResponse
		require.NoError(t, json.NewDecoder(wrong.Body).Decode(&a))
		require.NoError(t, json.NewDecoder(unknown.Body).Decode(&b))
		assert.Equal(t, a.Error, b.Error)
	})

	t.Run("get profile", func(t *testing.T) {
		w := send(t, router, http.MethodGet, "/api/users/"+ada.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body api.ProfileResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ada", body.Username)
		assert.Equal(t, "ada@example.com", body.Email)
	})

	t.Run("edit own profile", func(t *testing.T) {
		w := send(t, router, http.MethodPut, "/api/users/"+ada.ID.String(), ada.AccessToken,
			api.EditRequest{FullName: "Augusta Ada King"})
		require.Equal(t, http.StatusOK, w.Code)

		w = send(t, router, http.MethodGet, "/api/users/"+ada.ID.String(), "", nil)
		var body api.ProfileResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Augusta Ada King", body.FullName)
	})

	t.Run("edit without token", func(t *testing.T) {
		w := send(t, router, http.MethodPut, "/api/users/"+ada.ID.String(), "",
			api.EditRequest{FullName: "Nobody"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("edit with forged token", func(t *testing.T) {
		w := send(t, router, http.MethodPut, "/api/users/"+ada.ID.String(), ada.AccessToken+"x",
			api.EditRequest{FullName: "Nobody"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestEditAnotherAccountIsForbidden(t *testing.T) {
	t.Parallel()

	_, router := newTestApp(t, testConfig(t))

	ada := register(t, router, "ada", "ada@example.com")
	grace := register(t, router, "grace", "grace@example.com")

	w := send(t, router, http.MethodPut, "/api/users/"+ada.ID.String(), grace.AccessToken,
		api.EditRequest{FullName: "Grace Hopper"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	_, router := newTestApp(t, testConfig(t))

	w := send(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	register(t, router, "ada", "ada@example.com")

	w = send(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `accounts_auth_events_total{operation="register",outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), `route="/api/users/register"`)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	_, router := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/users/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginIsRateLimited(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.RateLimit = config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2}
	_, router := newTestApp(t, cfg)

	login := api.LoginRequest{Username: "nobody", Password: "whatever"}
	assert.Equal(t, http.StatusUnauthorized, send(t, router, http.MethodPost, "/api/users/login", "", login).Code)
	assert.Equal(t, http.StatusUnauthorized, send(t, router, http.MethodPost, "/api/users/login", "", login).Code)

	limited := send(t, router, http.MethodPost, "/api/users/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
}

func TestMultibytePasswordLimits(t *testing.T) {
	t.Parallel()

	_, router := newTestApp(t, testConfig(t))

	tooLong := strings.Repeat("é", 40)
	w := send(t, router, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
		FullName:        "Zoë Álvarez",
		PhoneNumber:     "+15550123",
		Email:           "zoe@example.com",
		Username:        "zoe",
		Password:        tooLong,
		ConfirmPassword: tooLong,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var body shared.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "password", body.Field)

	atLimit := strings.Repeat("é", 36)
	w = send(t, router, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
		FullName:        "Zoë Álvarez",
		PhoneNumber:     "+15550123",
		Email:           "zoe@example.com",
		Username:        "zoe",
		Password:        atLimit,
		ConfirmPassword: atLimit,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = send(t, router, http.MethodPost, "/api/users/login", "", api.LoginRequest{
		Username: "zoe", Password: atLimit,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
