package handler

import (
	"net/http"

	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profileService.Get(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: domainUserToHTTP(user)})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.profileService.Update(r.Context(), UserFromContext(r.Context()), service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserEnvelope{User: domainUserToHTTP(user)})
}

// ChangePassword перевыпускает cookie: версия сессии после смены пароля растёт
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.profileService.ChangePassword(r.Context(), UserFromContext(r.Context()), req.CurrentPassword, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.startSession(w, user, false); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.profileService.DeleteAccount(r.Context(), UserFromContext(r.Context()), req.Password); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListOAuthAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.profileService.ListOAuthAccounts(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainOAuthAccountsToHTTP(accounts))
}

func (h *Handler) UnlinkOAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if err := h.profileService.UnlinkOAuth(r.Context(), UserFromContext(r.Context()), provider); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
