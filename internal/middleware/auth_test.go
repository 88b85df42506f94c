package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"autohub/internal/auth"
	"autohub/internal/domain"
	identityModels "autohub/internal/domain/models/identity"
	identitySvc "autohub/internal/domain/services/identity"
	"autohub/internal/httputil"
)

// fakeAuthService resolves token subjects against a fixed set of accounts.
type fakeAuthService struct {
	users map[string]*identityModels.User
}

func (f *fakeAuthService) Login(ctx context.Context, req *identitySvc.LoginRequest, clientIP string) (*identitySvc.LoginResponse, error) {
	return nil, nil
}

func (f *fakeAuthService) Register(ctx context.Context, req *identitySvc.RegisterRequest) (*identityModels.RegistrationRequest, error) {
	return nil, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id string) (*identityModels.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

func (f *fakeAuthService) EnsureDemoDeveloper(ctx context.Context) error { return nil }

func newAuthTestStack(t *testing.T, users ...*identityModels.User) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	tokens := auth.NewLocalTokenService("test-secret", 60, logger)

	service := &fakeAuthService{users: make(map[string]*identityModels.User)}
	for _, u := range users {
		service.users[u.ID] = u
	}

	return AuthMiddleware(tokens, service, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func problemDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var problem struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("response is not problem JSON: %v", err)
	}
	return problem.Detail
}

func TestAuthMiddleware_PublicPathsPassThrough(t *testing.T) {
	handler := newAuthTestStack(t)

	for _, path := range []string{"/", "/health", "/api/auth/login", "/api/auth/register"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected %s to be public, got %d", path, rec.Code)
		}
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := newAuthTestStack(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := problemDetail(t, rec); got != "Not authenticated" {
		t.Errorf("unexpected detail %q", got)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate challenge")
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	handler := newAuthTestStack(t)

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for header %q, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := newAuthTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := problemDetail(t, rec); got != "Could not validate credentials" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestAuthMiddleware_ValidTokenLoadsUser(t *testing.T) {
	user := &identityModels.User{ID: "user-001", Email: "maya@demo.local", Role: identityModels.RoleEmployee}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	tokens := auth.NewLocalTokenService("test-secret", 60, logger)
	service := &fakeAuthService{users: map[string]*identityModels.User{user.ID: user}}

	var seen *identityModels.User
	handler := AuthMiddleware(tokens, service, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	token, err := tokens.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != user.ID {
		t.Errorf("expected user %s in context, got %+v", user.ID, seen)
	}
}

func TestAuthMiddleware_TokenForDeletedUser(t *testing.T) {
	ghost := &identityModels.User{ID: "user-gone", Email: "gone@demo.local", Role: identityModels.RoleEmployee}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	tokens := auth.NewLocalTokenService("test-secret", 60, logger)
	service := &fakeAuthService{users: map[string]*identityModels.User{}}

	handler := AuthMiddleware(tokens, service, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	token, err := tokens.IssueToken(ghost)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
	if got := problemDetail(t, rec); got != "Could not validate credentials" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := problemDetail(t, rec); got != "internal server error" {
		t.Errorf("unexpected detail %q", got)
	}
}
