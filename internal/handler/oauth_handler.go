package handler

import (
	"net/http"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/flash"
	"github.com/bagdasarian/teamhub/internal/oauth"
	"github.com/gorilla/mux"
)

func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers.Get(mux.Vars(r)["provider"])
	if !ok {
		h.pageError(w, r, domain.NewNotFoundError("oauth provider"))
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	oauth.WriteState(w, provider.Name(), state, h.secureCookies)

	h.pages.Location(w, r, provider.AuthCodeURL(state))
}

// OAuthCallback: вход, привязка к текущему аккаунту или регистрация
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers.Get(mux.Vars(r)["provider"])
	if !ok {
		h.pageError(w, r, domain.NewNotFoundError("oauth provider"))
		return
	}

	current := UserFromContext(r.Context())
	failTarget := "/login"
	if current != nil {
		failTarget = "/settings/profile"
	}

	if !oauth.VerifyState(w, r, provider.Name(), h.secureCookies) {
		h.redirectWithError(w, r, failTarget, domain.NewBadRequestError("Sign-in session expired, please try again"))
		return
	}
	if r.URL.Query().Get("error") != "" {
		h.redirectWithError(w, r, failTarget, domain.NewBadRequestError("Sign-in was cancelled"))
		return
	}

	profile, err := provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.WithContext(r.Context()).Warn("oauth exchange failed", "provider", provider.Name(), "error", err)
		h.redirectWithError(w, r, failTarget, domain.NewBadRequestError("Could not sign in with "+providerTitle(provider.Name())))
		return
	}

	result, err := h.oauthService.Login(r.Context(), profile, current)
	if err != nil {
		h.redirectWithError(w, r, failTarget, err)
		return
	}

	if current != nil {
		flash.Write(w, r, flash.Success(providerTitle(provider.Name())+" account linked"))
		http.Redirect(w, r, "/settings/profile", http.StatusFound)
		return
	}

	if err := h.startSession(w, result.User, result.MFARequired); err != nil {
		h.redirectWithError(w, r, failTarget, err)
		return
	}

	if result.MFARequired {
		http.Redirect(w, r, "/mfa", http.StatusFound)
		return
	}

	switch {
	case result.Created:
		flash.Write(w, r, flash.Success("Welcome to "+h.appName))
	case result.Linked:
		flash.Write(w, r, flash.Success(providerTitle(provider.Name())+" account linked"))
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func providerTitle(name string) string {
	switch name {
	case oauth.ProviderGitHub:
		return "GitHub"
	case oauth.ProviderGoogle:
		return "Google"
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
