package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/inertia"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// callbackRequest повторяет возврат от провайдера с cookie state
func callbackRequest(t *testing.T, h *Handler, query string) *http.Request {
	t.Helper()

	start := httptest.NewRecorder()
	startReq := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/oauth/github/start", nil), map[string]string{"provider": "github"})
	h.OAuthStart(start, startReq)
	stateCookie := responseCookie(start, "teamhub_oauth_github")
	require.NotNil(t, stateCookie)

	if query == "" {
		query = "code=abc&state=" + stateCookie.Value
	}
	req := httptest.NewRequest(http.MethodGet, "/oauth/github/callback?"+query, nil)
	req.AddCookie(stateCookie)
	return mux.SetURLVars(req, map[string]string{"provider": "github"})
}

func TestHandler_OAuthStart(t *testing.T) {
	t.Run("переход к провайдеру с state", func(t *testing.T) {
		h, _ := setupHandler(t)
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/oauth/github/start", nil), map[string]string{"provider": "github"})
		rec := httptest.NewRecorder()

		h.OAuthStart(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		state := responseCookie(rec, "teamhub_oauth_github")
		require.NotNil(t, state)
		assert.True(t, state.HttpOnly)
		assert.Equal(t, "https://provider.test/authorize?state="+state.Value, rec.Header().Get("Location"))
	})

	t.Run("Inertia-переход получает 409", func(t *testing.T) {
		h, _ := setupHandler(t)
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/oauth/github/start", nil), map[string]string{"provider": "github"})
		req.Header.Set(inertia.HeaderInertia, "true")
		rec := httptest.NewRecorder()

		h.OAuthStart(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get(inertia.HeaderLocation), "https://provider.test/authorize"))
	})

	t.Run("ошибка: провайдер не настроен", func(t *testing.T) {
		h, _ := setupHandler(t)
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/oauth/google/start", nil), map[string]string{"provider": "google"})
		rec := httptest.NewRecorder()

		h.OAuthStart(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_OAuthCallback(t *testing.T) {
	profile := &domain.OAuthProfile{Provider: "github", ProviderUserID: "1001", Email: "alice@example.com", EmailVerified: true}

	t.Run("вход и переход на дашборд", func(t *testing.T) {
		h, m := setupHandler(t)
		user := testUser()
		m.provider.profile = profile

		m.oauth.On("Login", mock.Anything, profile, (*domain.User)(nil)).
			Return(&service.OAuthLoginResult{User: user}, nil).Once()

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, callbackRequest(t, h, ""))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		assert.Equal(t, user.ID, issuedSession(t, h, rec).UserID)
		assert.Equal(t, []string{"abc"}, m.provider.codes)
	})

	t.Run("второй фактор после OAuth", func(t *testing.T) {
		h, m := setupHandler(t)
		m.provider.profile = profile

		m.oauth.On("Login", mock.Anything, profile, mock.Anything).
			Return(&service.OAuthLoginResult{User: testUser(), MFARequired: true}, nil).Once()

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, callbackRequest(t, h, ""))

		assert.Equal(t, "/mfa", rec.Header().Get("Location"))
		assert.True(t, issuedSession(t, h, rec).MFAPending)
	})

	t.Run("привязка к текущему аккаунту", func(t *testing.T) {
		h, m := setupHandler(t)
		user := testUser()
		m.provider.profile = profile

		m.oauth.On("Login", mock.Anything, profile, user).
			Return(&service.OAuthLoginResult{User: user, Linked: true}, nil).Once()

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, asUser(callbackRequest(t, h, ""), user))

		assert.Equal(t, "/settings/profile", rec.Header().Get("Location"))
		assert.Nil(t, responseCookie(rec, "sid"))
	})

	t.Run("ошибка: подменённый state", func(t *testing.T) {
		h, m := setupHandler(t)

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, callbackRequest(t, h, "code=abc&state=forged"))

		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Empty(t, m.provider.codes)
		m.oauth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка обмена кода", func(t *testing.T) {
		h, m := setupHandler(t)
		m.provider.err = errors.New("bad verification code")

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, callbackRequest(t, h, ""))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		m.oauth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка: email занят неподтверждённым аккаунтом", func(t *testing.T) {
		h, m := setupHandler(t)
		m.provider.profile = profile

		m.oauth.On("Login", mock.Anything, profile, mock.Anything).Return(nil, domain.ErrEmailTaken).Once()

		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, callbackRequest(t, h, ""))

		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Nil(t, responseCookie(rec, "sid"))
	})
}
