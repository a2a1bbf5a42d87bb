package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSession      = errors.New("session cookie is missing")
	ErrInvalidSession = errors.New("session is invalid")
)

// Session - содержимое подписанной cookie
type Session struct {
	UserID        uuid.UUID
	Version       int
	MFAPending    bool
	CurrentTeamID int64
	ExpiresAt     time.Time
}

type claims struct {
	Version    int   `json:"ver"`
	MFAPending bool  `json:"mfa,omitempty"`
	TeamID     int64 `json:"team,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	mfaTTL     time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(cfg config.SessionConfig, secret string) *Manager {
	return &Manager{
		secret:     []byte(secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		mfaTTL:     cfg.MFATTL,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// Encode подписывает сессию; срок жизни зависит от того, ожидается ли второй фактор
func (m *Manager) Encode(s *Session) (string, error) {
	now := m.now().UTC()
	ttl := m.ttl
	if s.MFAPending {
		ttl = m.mfaTTL
	}
	s.ExpiresAt = now.Add(ttl).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Version:    s.Version,
		MFAPending: s.MFAPending,
		TeamID:     s.CurrentTeamID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (m *Manager) Decode(value string) (*Session, error) {
	tok, err := jwt.ParseWithClaims(value, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidSession
	}

	c, ok := tok.Claims.(*claims)
	if !ok {
		return nil, ErrInvalidSession
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:        userID,
		Version:       c.Version,
		MFAPending:    c.MFAPending,
		CurrentTeamID: c.TeamID,
		ExpiresAt:     c.ExpiresAt.Time,
	}, nil
}

func (m *Manager) Issue(w http.ResponseWriter, s *Session) error {
	value, err := m.Encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return nil, ErrNoSession
	}
	return m.Decode(value)
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
