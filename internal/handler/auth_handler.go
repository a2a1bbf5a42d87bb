package handler

import (
	"net/http"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/flash"
	"github.com/bagdasarian/teamhub/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.startSession(w, user, false); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserEnvelope{User: domainUserToHTTP(user)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.startSession(w, result.User, result.MFARequired); err != nil {
		h.handleError(w, r, err)
		return
	}

	if result.MFARequired {
		writeJSON(w, http.StatusOK, LoginResponse{MFARequired: true})
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{User: domainUserPtrToHTTP(result.User)})
}

// CompleteMFA обменивает сессию с ожиданием второго фактора на полноценную
func (h *Handler) CompleteMFA(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess == nil || !sess.MFAPending {
		h.handleError(w, r, domain.ErrUnauthorized)
		return
	}

	var req CodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.authService.CompleteMFA(r.Context(), sess.UserID, req.Code)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if user.SessionVersion != sess.Version {
		h.sessions.Clear(w)
		h.handleError(w, r, domain.ErrUnauthorized)
		return
	}

	if err := h.startSession(w, user, false); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{User: domainUserPtrToHTTP(user)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), UserFromContext(r.Context()))
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "sent"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.handleError(w, r, err)
		return
	}

	// все сессии уже недействительны, включая текущую
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.ResendVerification(r.Context(), UserFromContext(r.Context())); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "sent"})
}

// VerifyEmail - переход по ссылке из письма
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if UserFromContext(r.Context()) != nil {
		target = "/dashboard"
	}

	if _, err := h.authService.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.redirectWithError(w, r, target, err)
		return
	}

	flash.Write(w, r, flash.Success("Your email address has been verified"))
	http.Redirect(w, r, target, http.StatusFound)
}
