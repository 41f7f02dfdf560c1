package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/patryk-bejcer/photobook/internal/domain"
	"github.com/patryk-bejcer/photobook/internal/repository"
	"github.com/patryk-bejcer/photobook/internal/repository/denylist"
	"github.com/patryk-bejcer/photobook/internal/service/auth"
	"github.com/patryk-bejcer/photobook/pkg/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*domain.User)}
}

func (s *userRepoStub) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *userRepoStub) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func setupRouter(t *testing.T, mutate func(*config.APIConfig)) *Router {
	t.Helper()
	cfg := config.APIConfig{
		JWTSecret:      "router-test-secret",
		AccessTokenTTL: time.Hour,
		RefreshGrace:   14 * 24 * time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	revoked := denylist.NewMemory()
	t.Cleanup(revoked.Close)
	svc := auth.New(newUserRepoStub(), revoked, newLogger(), cfg)
	return NewRouter(newLogger(), svc, nil)
}

func doJSON(t *testing.T, router *Router, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func registerJane(t *testing.T, router *Router) {
	t.Helper()
	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"name":                  "Jane Doe",
		"email":                 "jane@x.com",
		"password":              "pass123",
		"password_confirmation": "pass123",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func loginJane(t *testing.T, router *Router) string {
	t.Helper()
	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@x.com",
		"password": "pass123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("login returned empty access_token: %v", body)
	}
	return token
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	router := setupRouter(t, nil)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"name":                  "Jane Doe",
		"email":                 "jane@x.com",
		"password":              "pass123",
		"password_confirmation": "pass123",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["message"] != msgRegistered {
		t.Fatalf("unexpected register message: %v", body["message"])
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body["user"])
	}
	if user["name"] != "Jane Doe" || user["email"] != "jane@x.com" {
		t.Fatalf("unexpected user payload: %v", user)
	}
	for _, forbidden := range []string{"password", "password_hash"} {
		if _, present := user[forbidden]; present {
			t.Fatalf("user payload leaks %q", forbidden)
		}
	}

	rec, body = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@x.com",
		"password": "pass123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected non-empty access_token")
	}
	if body["token_type"] != "bearer" {
		t.Fatalf("unexpected token_type: %v", body["token_type"])
	}
	if expires, ok := body["expires_in"].(float64); !ok || expires <= 0 {
		t.Fatalf("unexpected expires_in: %v", body["expires_in"])
	}

	rec, body = doJSON(t, router, http.MethodGet, "/api/auth/user-profile", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["email"] != "jane@x.com" || body["name"] != "Jane Doe" {
		t.Fatalf("profile returned wrong identity: %v", body)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := setupRouter(t, nil)
	registerJane(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@x.com",
		"password": "wrong",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["error"] != msgWrongCredentials {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	rec, unknown := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "pass123",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d", rec.Code)
	}
	if unknown["error"] != body["error"] {
		t.Fatalf("wrong-password and unknown-email responses differ: %v vs %v", body, unknown)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := setupRouter(t, nil)
	registerJane(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"name":                  "Other Jane",
		"email":                 "jane@x.com",
		"password":              "pass456",
		"password_confirmation": "pass456",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	msgs, ok := body["email"].([]any)
	if !ok || len(msgs) == 0 || msgs[0] != msgEmailAlreadyTaken {
		t.Fatalf("unexpected duplicate email payload: %v", body)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	router := setupRouter(t, nil)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"name":                  "J",
		"email":                 "not-an-email",
		"password":              "abc",
		"password_confirmation": "abc",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	for _, field := range []string{"name", "email", "password"} {
		if _, present := body[field]; !present {
			t.Fatalf("expected validation message for %q, got %v", field, body)
		}
	}
}

func TestLoginValidationErrors(t *testing.T) {
	router := setupRouter(t, nil)
	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "not-an-email",
		"password": "",
	}, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, present := body["email"]; !present {
		t.Fatalf("expected email validation message, got %v", body)
	}
}

func TestLogoutThenProtectedCallsFail(t *testing.T) {
	router := setupRouter(t, nil)
	registerJane(t, router)
	token := loginJane(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["message"] != msgSignedOut {
		t.Fatalf("unexpected logout message: %v", body["message"])
	}

	rec, body = doJSON(t, router, http.MethodGet, "/api/auth/user-profile", nil, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("profile after logout status = %d", rec.Code)
	}
	if body["error"] != msgUnauthenticated {
		t.Fatalf("unexpected error payload: %v", body)
	}

	if rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil, token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("second logout status = %d", rec.Code)
	}
	if rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/refresh", nil, token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d", rec.Code)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	router := setupRouter(t, nil)
	registerJane(t, router)
	token := loginJane(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/refresh", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
	fresh, _ := body["access_token"].(string)
	if fresh == "" || fresh == token {
		t.Fatalf("expected a rotated token, got %q", fresh)
	}
	if body["token_type"] != "bearer" {
		t.Fatalf("unexpected token_type: %v", body["token_type"])
	}

	if rec, _ := doJSON(t, router, http.MethodGet, "/api/auth/user-profile", nil, fresh); rec.Code != http.StatusOK {
		t.Fatalf("fresh token rejected: %d", rec.Code)
	}
	if rec, _ := doJSON(t, router, http.MethodGet, "/api/auth/user-profile", nil, token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old token still accepted after refresh: %d", rec.Code)
	}
}

func TestExpiredTokenIsUnauthenticated(t *testing.T) {
	router := setupRouter(t, func(cfg *config.APIConfig) {
		cfg.AccessTokenTTL = -time.Minute
	})
	registerJane(t, router)
	token := loginJane(t, router)

	rec, body := doJSON(t, router, http.MethodGet, "/api/auth/user-profile", nil, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["error"] != msgUnauthenticated {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestProtectedRoutesWithoutToken(t *testing.T) {
	router := setupRouter(t, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/user-profile"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/refresh"},
	} {
		rec, body := doJSON(t, router, tc.method, tc.path, nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d", tc.method, tc.path, rec.Code)
		}
		if body["error"] != msgUnauthenticated {
			t.Fatalf("%s %s unexpected payload: %v", tc.method, tc.path, body)
		}
	}
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	router := setupRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user-profile", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := setupRouter(t, nil)
	rec, _ := doJSON(t, router, http.MethodGet, "/api/auth/login", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	router := setupRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	healthy := setupRouter(t, nil)
	rec, body := doJSON(t, healthy, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}

	revoked := denylist.NewMemory()
	t.Cleanup(revoked.Close)
	svc := auth.New(newUserRepoStub(), revoked, newLogger(), config.APIConfig{JWTSecret: "s", AccessTokenTTL: time.Hour})
	degraded := NewRouter(newLogger(), svc, func(context.Context) error {
		return errors.New("db down")
	})
	rec, body = doJSON(t, degraded, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("degraded status = %d, body %v", rec.Code, body)
	}
}
