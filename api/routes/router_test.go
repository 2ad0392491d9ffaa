package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authsvc "github.com/mentorhub/mentorhub-backend/internal/auth"
	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	pkgauth "github.com/mentorhub/mentorhub-backend/pkg/auth"
	"github.com/mentorhub/mentorhub-backend/pkg/auth/session"
	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct {
	pair *authsvc.TokenPair
	err  error
}

func (s stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (*authsvc.TokenPair, error) {
	return s.pair, s.err
}

func (s stubAuthService) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.TokenPair, error) {
	return s.pair, s.err
}

func (s stubAuthService) Refresh(ctx context.Context, input authsvc.RefreshInput) (*authsvc.TokenPair, error) {
	return s.pair, s.err
}

func (s stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return s.err
}

type stubInboxService struct {
	count int64
}

func (s stubInboxService) List(ctx context.Context, email string, params pagination.Params) (*inbox.Page, error) {
	return &inbox.Page{}, nil
}

func (s stubInboxService) MarkRead(ctx context.Context, identity, itemID string) (syncpkg.Outcome[models.InboxItem], error) {
	return syncpkg.LocalOnly(models.InboxItem{ID: itemID, Read: true}), nil
}

func (s stubInboxService) UnreadCount(ctx context.Context, email string) int64 {
	return s.count
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config, svcs Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		nil,
		svcs,
	)
}

func buildToken(t *testing.T, cfg *config.Config, email string) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: "user-1",
		Email:  email,
		Name:   "Test User",
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-MentorHub-Env"); got != "test" {
		t.Fatalf("expected env header got %q", got)
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	for _, target := range []string{
		"/api/v1/profiles",
		"/api/v1/requests",
		"/api/v1/connections",
		"/api/v1/conversations",
		"/api/v1/meetings",
		"/api/v1/invites",
		"/api/v1/inbox",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", target, resp.Code)
		}
	}
}

func TestProtectedRouteSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{Inbox: stubInboxService{count: 3}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inbox/unread-count", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "me@example.com"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"unreadCount":3`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestAuthLoginRouteMounted(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{Auth: stubAuthService{pair: &authsvc.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		UserID:       "user-1",
		Email:        "me@example.com",
	}}})

	body := `{"email":"me@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"accessToken":"access"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
