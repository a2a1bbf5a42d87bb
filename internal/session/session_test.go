package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(now time.Time) *Manager {
	m := NewManager(config.SessionConfig{
		CookieName: "sid",
		TTL:        24 * time.Hour,
		MFATTL:     5 * time.Minute,
	}, testSecret)
	m.now = func() time.Time { return now }
	return m
}

func TestManager_IssueAndRead(t *testing.T) {
	now := time.Now()
	m := newTestManager(now)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	s := &Session{UserID: userID, Version: 3, CurrentTeamID: 7}
	require.NoError(t, m.Issue(rec, s))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	got, err := m.Read(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, int64(7), got.CurrentTeamID)
	assert.False(t, got.MFAPending)
	assert.WithinDuration(t, now.Add(24*time.Hour), got.ExpiresAt, time.Second)
}

func TestManager_MFAPendingTTL(t *testing.T) {
	now := time.Now()
	m := newTestManager(now)

	value, err := m.Encode(&Session{UserID: uuid.New(), Version: 1, MFAPending: true})
	require.NoError(t, err)

	t.Run("в пределах пяти минут", func(t *testing.T) {
		s, err := m.Decode(value)
		require.NoError(t, err)
		assert.True(t, s.MFAPending)
		assert.WithinDuration(t, now.Add(5*time.Minute), s.ExpiresAt, time.Second)
	})

	t.Run("после истечения", func(t *testing.T) {
		later := newTestManager(now.Add(6 * time.Minute))
		_, err := later.Decode(value)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestManager_Read_Errors(t *testing.T) {
	m := newTestManager(time.Now())

	t.Run("нет cookie", func(t *testing.T) {
		_, err := m.Read(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("подделанная подпись", func(t *testing.T) {
		other := NewManager(config.SessionConfig{CookieName: "sid", TTL: time.Hour, MFATTL: time.Minute}, "another-secret-another-secret-123")
		value, err := other.Encode(&Session{UserID: uuid.New(), Version: 1})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: value})

		_, err = m.Read(req)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("другой алгоритм подписи", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		value, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = m.Decode(value)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("некорректный subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		value, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = m.Decode(value)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager(time.Now())
	rec := httptest.NewRecorder()

	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
