package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/handler"
	"github.com/bagdasarian/teamhub/internal/inertia"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/oauth"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/bagdasarian/teamhub/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error {
	return p.err
}

type routerEnv struct {
	router   http.Handler
	sessions *session.Manager
	auth     *service.MockAuthService
	teams    *service.MockTeamService
	admin    *service.MockAdminService
}

func setupRouter(t *testing.T, db handler.Pinger) *routerEnv {
	t.Helper()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "Teamhub", AssetVersion: "2"},
		Session:   config.SessionConfig{CookieName: "sid", TTL: time.Hour, MFATTL: 5 * time.Minute},
		RateLimit: config.RateLimitConfig{AuthPerMinute: 60, AuthBurst: 10},
	}
	env := &routerEnv{
		sessions: session.NewManager(cfg.Session, "0123456789abcdef0123456789abcdef"),
		auth:     new(service.MockAuthService),
		teams:    new(service.MockTeamService),
		admin:    new(service.MockAdminService),
	}

	h, err := handler.NewHandler(cfg, handler.Deps{
		Auth:        env.auth,
		MFA:         new(service.MockMFAService),
		Profile:     new(service.MockProfileService),
		Teams:       env.teams,
		Invitations: new(service.MockInvitationService),
		Admin:       env.admin,
		OAuth:       new(service.MockOAuthService),
		Providers:   oauth.NewRegistry(),
		Sessions:    env.sessions,
		DB:          db,
	}, logger.Nop())
	require.NoError(t, err)

	env.router = NewRouter(h)
	return env
}

// signIn выдаёт cookie сессии и настраивает загрузку пользователя
func (e *routerEnv) signIn(t *testing.T, user *domain.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.Issue(rec, &session.Session{UserID: user.ID, Version: user.SessionVersion}))
	e.auth.On("CurrentUser", mock.Anything, user.ID, user.SessionVersion).Return(user, nil)
	return rec.Result().Cookies()[0]
}

func newUser() *domain.User {
	now := time.Now()
	return &domain.User{
		ID:              uuid.New(),
		Email:           "alice@example.com",
		Name:            "Alice",
		EmailVerifiedAt: &now,
		IsActive:        true,
		SessionVersion:  1,
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRouter_Healthz(t *testing.T) {
	t.Run("база доступна", func(t *testing.T) {
		env := setupRouter(t, fakePinger{})
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("база недоступна", func(t *testing.T) {
		env := setupRouter(t, fakePinger{err: errors.New("dial tcp: refused")})
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("неверный метод", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_API(t *testing.T) {
	t.Run("без сессии 401", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, domain.CodeUnauthorized, errorCode(t, rec))
	})

	t.Run("неизвестный маршрут API отвечает JSON 404", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, domain.CodeNotFound, errorCode(t, rec))
	})

	t.Run("список команд пользователя", func(t *testing.T) {
		env := setupRouter(t, nil)
		user := newUser()
		cookie := env.signIn(t, user)

		env.teams.On("ListForUser", mock.Anything, user).Return([]*domain.TeamMembership{
			{Team: domain.Team{ID: 1, Name: "Alpha"}, Role: domain.TeamRoleOwner},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"owner"`)
	})

	t.Run("обычный пользователь не попадает в админку", func(t *testing.T) {
		env := setupRouter(t, nil)
		user := newUser()
		cookie := env.signIn(t, user)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		env.admin.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
	})

	t.Run("роли изменяет только суперпользователь", func(t *testing.T) {
		env := setupRouter(t, nil)
		user := newUser()
		user.Role = &domain.Role{Name: "ops", Permissions: []domain.Permission{domain.PermRolesWrite, domain.PermRolesRead}}
		cookie := env.signIn(t, user)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/roles", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		env.admin.AssertNotCalled(t, "CreateRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("сотрудник с правом users:read видит пользователей", func(t *testing.T) {
		env := setupRouter(t, nil)
		user := newUser()
		user.Role = &domain.Role{Name: "support", Permissions: []domain.Permission{domain.PermUsersRead}}
		cookie := env.signIn(t, user)

		env.admin.On("ListUsers", mock.Anything, mock.Anything).
			Return(domain.NewPaginated([]*domain.User{}, 0, domain.Page{}), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_Pages(t *testing.T) {
	t.Run("гость перенаправлен на вход", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("устаревшие ассеты", func(t *testing.T) {
		env := setupRouter(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.Header.Set(inertia.HeaderInertia, "true")
		req.Header.Set(inertia.HeaderVersion, "1")
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get(inertia.HeaderLocation))
	})

	t.Run("страница входа", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Auth/Login")
	})

	t.Run("неизвестный провайдер OAuth", func(t *testing.T) {
		env := setupRouter(t, nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/google/start", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
