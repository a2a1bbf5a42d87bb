package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/oauth"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/bagdasarian/teamhub/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testMocks struct {
	auth        *service.MockAuthService
	mfa         *service.MockMFAService
	profile     *service.MockProfileService
	teams       *service.MockTeamService
	invitations *service.MockInvitationService
	admin       *service.MockAdminService
	oauth       *service.MockOAuthService
	provider    *fakeProvider
}

type fakeProvider struct {
	profile *domain.OAuthProfile
	err     error
	codes   []string
}

func (p *fakeProvider) Name() string {
	return oauth.ProviderGitHub
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	p.codes = append(p.codes, code)
	return p.profile, p.err
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:         "Teamhub",
			Env:          "test",
			AssetVersion: "1",
		},
		Session: config.SessionConfig{
			CookieName: "sid",
			TTL:        time.Hour,
			MFATTL:     5 * time.Minute,
		},
		RateLimit: config.RateLimitConfig{AuthPerMinute: 60, AuthBurst: 10},
	}
}

func setupHandlerWithConfig(t *testing.T, cfg *config.Config) (*Handler, *testMocks) {
	t.Helper()

	m := &testMocks{
		auth:        new(service.MockAuthService),
		mfa:         new(service.MockMFAService),
		profile:     new(service.MockProfileService),
		teams:       new(service.MockTeamService),
		invitations: new(service.MockInvitationService),
		admin:       new(service.MockAdminService),
		oauth:       new(service.MockOAuthService),
		provider:    &fakeProvider{},
	}

	h, err := NewHandler(cfg, Deps{
		Auth:        m.auth,
		MFA:         m.mfa,
		Profile:     m.profile,
		Teams:       m.teams,
		Invitations: m.invitations,
		Admin:       m.admin,
		OAuth:       m.oauth,
		Providers:   oauth.NewRegistry(m.provider),
		Sessions:    session.NewManager(cfg.Session, testSecret),
	}, logger.Nop())
	require.NoError(t, err)

	return h, m
}

func setupHandler(t *testing.T) (*Handler, *testMocks) {
	return setupHandlerWithConfig(t, newTestConfig())
}

func testUser() *domain.User {
	verified := time.Now().Add(-time.Hour)
	return &domain.User{
		ID:              uuid.New(),
		Email:           "alice@example.com",
		Name:            "Alice",
		PasswordHash:    "$argon2id$stub",
		EmailVerifiedAt: &verified,
		IsActive:        true,
		SessionVersion:  1,
		CreatedAt:       time.Now().Add(-24 * time.Hour),
	}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func asUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(withUser(r.Context(), user))
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func issuedSession(t *testing.T, h *Handler, rec *httptest.ResponseRecorder) *session.Session {
	t.Helper()
	cookie := responseCookie(rec, "sid")
	require.NotNil(t, cookie, "session cookie not set")
	sess, err := h.sessions.Decode(cookie.Value)
	require.NoError(t, err)
	return sess
}

func sessionCookie(t *testing.T, h *Handler, s *session.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, h.sessions.Issue(rec, s))
	cookie := responseCookie(rec, "sid")
	require.NotNil(t, cookie)
	return cookie
}
