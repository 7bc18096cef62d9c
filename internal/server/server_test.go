package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	store.HashCost = bcrypt.MinCost
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

type harness struct {
	t     *testing.T
	cfg   *config.Config
	store *store.Store
	h     http.Handler
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		AppName:       "Voting Platform API",
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "api.db"),
		JWTSecret:     "test-secret",
		JWTIssuer:     "votedesk",
		TokenLifetime: 30,
		CORSOrigins:   []string{"http://localhost:5173", "https://*.pages.dev"},
		AdminUsername: "admin",
		AdminEmail:    "admin@votingsystem.com",
		AdminPassword: "admin123",
		SeedTestUser:  true,
	}
	for _, o := range opts {
		o(cfg)
	}
	st, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Bootstrap(context.Background(), cfg))

	return &harness{t: t, cfg: cfg, store: st, h: New(st, cfg, zap.NewNop()).Handler()}
}

// do sends a JSON request. body may be nil.
func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.h.ServeHTTP(w, req)
	return w
}

func (h *harness) login(username, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	return decode[tokenResponse](h.t, w).AccessToken
}

// newUser registers a participant and logs in.
func (h *harness) newUser(name string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return h.login(name, "secret1")
}

// newModerator creates a moderator account directly in the store.
func (h *harness) newModerator(name string) string {
	h.t.Helper()
	_, err := h.store.CreateUser(context.Background(), store.NewUser{
		Username: name, Email: name + "@example.com", Password: "secret1", Role: models.RoleModerator,
	})
	require.NoError(h.t, err)
	return h.login(name, "secret1")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireDetail(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, msg, decode[map[string]string](t, w)["detail"])
}

func TestRootAndHealth(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	root := decode[map[string]string](t, w)
	assert.Equal(t, "Welcome to Voting Platform API", root["message"])
	assert.Equal(t, config.Version, root["version"])

	w = h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = h.do(http.MethodHead, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	t.Run("json", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "admin123"})
		require.Equal(t, http.StatusOK, w.Code)
		tok := decode[tokenResponse](t, w)
		assert.NotEmpty(t, tok.AccessToken)
		assert.Equal(t, "bearer", tok.TokenType)
		assert.Equal(t, 30*60, tok.ExpiresIn)
	})

	t.Run("form by email", func(t *testing.T) {
		form := url.Values{"username": {"USER@votingsystem.com"}, "password": {"user123"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "nope"})
		requireDetail(t, w, http.StatusUnauthorized, "Incorrect username or password")
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("missing fields", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	tok := h.login("admin", "admin123")

	w := h.do(http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "admin", me["username"])
	assert.Equal(t, models.RoleAdmin, me["role_name"])
	assert.NotContains(t, me, "hashed_password")

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"garbage":   "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			h.h.ServeHTTP(w, req)
			requireDetail(t, w, http.StatusUnauthorized, "Could not validate credentials")
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestToken_WrongIssuerRejected(t *testing.T) {
	h := newHarness(t)
	other := newHarness(t, func(c *config.Config) { c.JWTIssuer = "someone-else" })

	tok := other.login("admin", "admin123")
	w := h.do(http.MethodGet, "/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	body := gin.H{"username": "alice", "email": "Alice@Example.com", "password": "secret1", "full_name": "Alice"}

	w := h.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u := decode[map[string]any](t, w)
	assert.Equal(t, "alice@example.com", u["email"])
	assert.Equal(t, models.RoleParticipant, u["role_name"])

	w = h.do(http.MethodPost, "/api/auth/register", "", body)
	requireDetail(t, w, http.StatusBadRequest, "Username already registered")

	w = h.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInactiveUser(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/v1/auth/register/voter", "", gin.H{
		"full_name": "Vera Voter", "date_of_birth": "1990-05-01", "address": "1 Main St",
		"email": "vera@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[tokenResponse](t, w)
	require.NotNil(t, reg.User)
	require.NotNil(t, reg.User.VoterID)

	admin := h.login("admin", "admin123")
	w = h.do(http.MethodDelete, fmt.Sprintf("/api/v1/voters/%d", *reg.User.VoterID), admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/v1/auth/me", reg.AccessToken, nil)
	requireDetail(t, w, http.StatusBadRequest, "Inactive user")
}

func TestRoleGating(t *testing.T) {
	h := newHarness(t)
	user := h.login("user", "user123")
	mod := h.newModerator("mod")
	admin := h.login("admin", "admin123")
	poll := gin.H{"name": "Lunch", "options": []gin.H{{"name": "Pizza"}}}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"anonymous write", http.MethodPost, "/api/polls", "", poll, http.StatusUnauthorized},
		{"participant write", http.MethodPost, "/api/polls", user, poll, http.StatusForbidden},
		{"moderator write", http.MethodPost, "/api/polls", mod, poll, http.StatusCreated},
		{"public read", http.MethodGet, "/api/polls", "", nil, http.StatusOK},
		{"moderator not admin", http.MethodPost, "/api/participants", mod, gin.H{"full_name": "x"}, http.StatusForbidden},
		{"admin participant", http.MethodPost, "/api/participants", admin, gin.H{"full_name": "x"}, http.StatusCreated},
		{"participant stats", http.MethodGet, "/api/admin/stats", user, nil, http.StatusForbidden},
		{"moderator stats", http.MethodGet, "/api/admin/stats", mod, nil, http.StatusOK},
		{"moderator system", http.MethodGet, "/api/v1/admin/system", mod, nil, http.StatusForbidden},
		{"participant election write", http.MethodPost, "/api/v1/elections", user, gin.H{}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "Not enough permissions", decode[map[string]string](t, w)["detail"])
			}
		})
	}
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin", "admin123")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"non-numeric id", http.MethodGet, "/api/polls/abc", nil, http.StatusUnprocessableEntity},
		{"zero id", http.MethodGet, "/api/polls/0", nil, http.StatusUnprocessableEntity},
		{"limit too large", http.MethodGet, "/api/polls?limit=5000", nil, http.StatusUnprocessableEntity},
		{"negative skip", http.MethodGet, "/api/teams?skip=-1", nil, http.StatusUnprocessableEntity},
		{"bad team filter", http.MethodGet, "/api/participants?team_id=x", nil, http.StatusUnprocessableEntity},
		{"missing poll name", http.MethodPost, "/api/polls", gin.H{"description": "x"}, http.StatusUnprocessableEntity},
		{"unknown status", http.MethodGet, "/api/polls?status=bogus", nil, http.StatusBadRequest},
		{"missing poll", http.MethodGet, "/api/polls/999", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(tt.method, tt.path, admin, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, decode[map[string]any](t, w), "detail")
		})
	}
}

func TestCORS(t *testing.T) {
	h := newHarness(t)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		h.h.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/polls", nil)
		req.Header.Set("Origin", "https://preview.pages.dev")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		h.h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://preview.pages.dev", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"http://localhost:3000", "https://*.pages.dev"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://localhost:3001", false},
		{"https://abc.pages.dev", true},
		{"https://a.b.pages.dev", true},
		{"https://.pages.dev", false},
		{"https://evil.com/x.pages.dev", false},
		{"http://abc.pages.dev", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, originAllowed(tt.origin, patterns), tt.origin)
	}
	assert.True(t, originAllowed("https://anything", []string{"*"}))
}

func TestNoRoute(t *testing.T) {
	t.Run("api only", func(t *testing.T) {
		h := newHarness(t)
		w := h.do(http.MethodGet, "/dashboard", "", nil)
		requireDetail(t, w, http.StatusNotFound, "Not Found")
	})

	t.Run("with ui", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) { c.ServeUI = true })

		w := h.do(http.MethodGet, "/api/nope", "", nil)
		requireDetail(t, w, http.StatusNotFound, "Not Found")

		w = h.do(http.MethodGet, "/polls/12", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "votedesk")
	})
}
