package oauth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/bagdasarian/teamhub/internal/security"
)

const (
	stateCookiePrefix = "teamhub_oauth_"
	stateTTL          = 10 * time.Minute
)

func NewState() (string, error) {
	return security.RandomString(32)
}

// WriteState сохраняет state в короткоживущей cookie, привязанной к провайдеру
func WriteState(w http.ResponseWriter, provider, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookiePrefix + provider,
		Value:    state,
		Path:     "/oauth/" + provider,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// VerifyState сравнивает state из callback с cookie и удаляет cookie
func VerifyState(w http.ResponseWriter, r *http.Request, provider string, secure bool) bool {
	cookie, err := r.Cookie(stateCookiePrefix + provider)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookiePrefix + provider,
		Value:    "",
		Path:     "/oauth/" + provider,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || cookie.Value == "" {
		return false
	}
	got := r.URL.Query().Get("state")
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(cookie.Value)) == 1
}
