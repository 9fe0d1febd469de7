package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/rbac"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	sessiondomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/blacklist"
	tokenservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/service"
	userdomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s2 := *s
		return &s2, nil
	}
	return nil, nil
}

func (r *memSessionRepo) UpdateRefreshTokenHash(ctx context.Context, id, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.RefreshTokenHash = hash
	}
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	t := at
	s.RevokedAt = &t
	return true, nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil {
			t := at
			s.RevokedAt = &t
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*userdomain.User), byEmail: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

type staticRBAC struct{}

func (staticRBAC) GetUserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	return []rbac.Role{{ID: "role-customer", Name: "customer"}}, nil
}

func (staticRBAC) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	return []string{"orders:read"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hasher := security.NewHasher(4)
	signer := security.NewTokenSigner([]byte("access-secret"), []byte("refresh-secret"), "lumi-auth", "lumi-api", 15*time.Minute, time.Hour)
	sessions := sessionservice.New(&memSessionRepo{m: make(map[string]*sessiondomain.Session)}, hasher, security.NewFingerprinter([]byte("fp-secret")), nil, time.Hour)
	users := newMemUserRepo()
	tokens := tokenservice.New(sessions, staticRBAC{}, users, signer, blacklist.NewMemoryStore(0))
	return New(sessions, tokens, users, hasher, signer, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

const testPassword = "Str0ng!Passw0rd"

func registerAndLogin(t *testing.T, s *Server) (access, refresh string) {
	t.Helper()
	w, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "shopper@example.com", "password": testPassword, "name": "Shopper"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	w, out := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "shopper@example.com", "password": testPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	access, _ = out["access_token"].(string)
	refresh, _ = out["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("login did not return tokens: %v", out)
	}
	return access, refresh
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	registerAndLogin(t, s)

	w, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "shopper@example.com", "password": "Wrong!Passw0rd1"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	s := newTestServer(t)
	w, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "a@example.com", "password": "short"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMe_WithAccessToken(t *testing.T) {
	s := newTestServer(t)
	access, _ := registerAndLogin(t, s)

	w, out := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/auth/me", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if out["email"] != "shopper@example.com" {
		t.Errorf("email = %v", out["email"])
	}
}

func TestMe_NoToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/auth/me", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	s := newTestServer(t)
	_, refresh := registerAndLogin(t, s)

	w, out := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/refresh",
		gin.H{"refresh_token": refresh}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
	newRefresh, _ := out["refresh_token"].(string)
	if newRefresh == "" || newRefresh == refresh {
		t.Fatal("refresh did not rotate the token")
	}

	// Replaying the retired token is rejected with a generic 401.
	w, out = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/refresh",
		gin.H{"refresh_token": refresh}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", w.Code)
	}
	if out["error"] != "unauthorized" {
		t.Errorf("replay error = %v, want generic unauthorized", out["error"])
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	s := newTestServer(t)
	access, refresh := registerAndLogin(t, s)

	w, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/logout",
		gin.H{"refresh_token": refresh}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	// The still-time-valid access token is now rejected.
	w, _ = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/auth/me", nil, access)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", w.Code)
	}

	// Logout is a no-op for garbage tokens.
	w, _ = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/logout",
		gin.H{"refresh_token": "garbage"}, "")
	if w.Code != http.StatusOK {
		t.Errorf("logout with garbage status = %d, want 200", w.Code)
	}
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	s := newTestServer(t)
	access1, _ := registerAndLogin(t, s)

	// Second login for the same account.
	w, out := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "shopper@example.com", "password": testPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("second login status = %d", w.Code)
	}
	access2, _ := out["access_token"].(string)

	w, out = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/auth/logout-all", nil, access1)
	if w.Code != http.StatusOK {
		t.Fatalf("logout-all status = %d, body = %s", w.Code, w.Body.String())
	}
	if n, _ := out["revoked"].(float64); n != 2 {
		t.Errorf("revoked = %v, want 2", out["revoked"])
	}

	w, _ = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/auth/me", nil, access2)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me with second session status = %d, want 401", w.Code)
	}
}
