package handler

import (
	"net/http"

	"github.com/bagdasarian/teamhub/internal/domain"
)

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	invitations, err := h.invitationService.ListPending(r.Context(), UserFromContext(r.Context()), teamID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainInvitationsToHTTP(invitations))
}

func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req InviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	inv, err := h.invitationService.Invite(r.Context(), UserFromContext(r.Context()), teamID, req.Email, domain.TeamRole(req.Role))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainInvitationToHTTP(inv))
}

func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	invID, err := pathInt64(r, "invID")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.invitationService.Revoke(r.Context(), UserFromContext(r.Context()), teamID, invID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	inv, err := h.invitationService.Accept(r.Context(), UserFromContext(r.Context()), req.Token)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainInvitationToHTTP(inv))
}
