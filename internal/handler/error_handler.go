package handler

import (
	"errors"
	"net/http"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/flash"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		writeJSON(w, getStatusCode(domainErr.Code), ErrorResponse{
			Error: ErrorDetail{
				Code:    domainErr.Code,
				Message: domainErr.Message,
				Fields:  domainErr.Fields,
			},
		})
		return
	}

	h.log.WithContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		},
	})
}

// pageError рендерит страницу ошибки с тем же статусом, что и JSON API
func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status = getStatusCode(domainErr.Code)
		message = domainErr.Message
	} else {
		h.log.WithContext(r.Context()).Error("page failed", "error", err, "path", r.URL.Path)
	}

	if status == http.StatusUnauthorized {
		h.pages.Redirect(w, r, "/login")
		return
	}

	props := map[string]any{"status": status, "message": message}
	if renderErr := h.pages.RenderStatus(w, r, status, "Error", props); renderErr != nil {
		h.log.WithContext(r.Context()).Error("render error page", "error", renderErr)
	}
}

// redirectWithError - ошибка для браузерных переходов (OAuth, ссылки из писем)
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, target string, err error) {
	message := "Something went wrong, please try again"

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	} else {
		h.log.WithContext(r.Context()).Error("redirect flow failed", "error", err, "path", r.URL.Path)
	}

	flash.Write(w, r, flash.Error(message))
	http.Redirect(w, r, target, http.StatusFound)
}

func getStatusCode(errorCode string) int {
	switch errorCode {
	case domain.CodeUnauthorized, domain.CodeInvalidCredentials, domain.CodeMFARequired, domain.CodeInvalidMFACode:
		return http.StatusUnauthorized
	case domain.CodeForbidden, domain.CodeEmailNotVerified, domain.CodeAccountDisabled:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeEmailTaken, domain.CodeTeamSlugTaken, domain.CodeAlreadyMember, domain.CodeRoleExists,
		domain.CodeTagExists, domain.CodeInvitationPending, domain.CodeMFAAlreadyEnabled, domain.CodeMFANotEnabled,
		domain.CodeLastOwner, domain.CodeOAuthLinked, domain.CodeLastLoginMethod:
		return http.StatusConflict
	case domain.CodeValidation:
		return http.StatusUnprocessableEntity
	case domain.CodeBadRequest, domain.CodeTokenInvalid, domain.CodeTokenExpired:
		return http.StatusBadRequest
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
