package handler

import (
	"net/http"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/service"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.teamService.ListForUser(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainMembershipsToHTTP(memberships))
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req TeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), UserFromContext(r.Context()), teamInputFromHTTP(req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainTeamToHTTP(team))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	membership, err := h.teamService.Get(r.Context(), UserFromContext(r.Context()), teamID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainMembershipToHTTP(membership))
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req TeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	team, err := h.teamService.Update(r.Context(), UserFromContext(r.Context()), teamID, teamInputFromHTTP(req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainTeamToHTTP(team))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.teamService.Delete(r.Context(), UserFromContext(r.Context()), teamID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), UserFromContext(r.Context()), teamID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainMembersToHTTP(members))
}

func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req MemberRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	err = h.teamService.UpdateMemberRole(r.Context(), UserFromContext(r.Context()), teamID, userID, domain.TeamRole(req.Role))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.teamService.RemoveMember(r.Context(), UserFromContext(r.Context()), teamID, userID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.teamService.Leave(r.Context(), UserFromContext(r.Context()), teamID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func teamInputFromHTTP(req TeamRequest) service.TeamInput {
	return service.TeamInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
}
