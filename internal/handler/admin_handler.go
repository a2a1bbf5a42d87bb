package handler

import (
	"net/http"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/google/uuid"
)

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainStatsToHTTP(stats))
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.adminService.ListUsers(r.Context(), domain.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   queryPage(r),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginatedToHTTP(page, domainUserToHTTP))
}

func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.adminService.GetUser(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: domainUserToHTTP(user)})
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), UserFromContext(r.Context()), id, service.UpdateUserInput{
		Name:        req.Name,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		RoleID:      req.RoleID,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: domainUserToHTTP(user)})
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), UserFromContext(r.Context()), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminSetUserTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req UserTagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	user, err := h.adminService.SetUserTags(r.Context(), UserFromContext(r.Context()), id, req.TagIDs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: domainUserToHTTP(user)})
}

func (h *Handler) AdminListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.adminService.ListRoles(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainRolesToHTTP(roles))
}

func (h *Handler) AdminCreateRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	role, err := h.adminService.CreateRole(r.Context(), UserFromContext(r.Context()), roleInputFromHTTP(req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domainRoleToHTTP(role))
}

func (h *Handler) AdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	role, err := h.adminService.UpdateRole(r.Context(), UserFromContext(r.Context()), id, roleInputFromHTTP(req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainRoleToHTTP(role))
}

func (h *Handler) AdminDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.adminService.DeleteRole(r.Context(), UserFromContext(r.Context()), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.adminService.ListTags(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainTagsToHTTP(tags))
}

func (h *Handler) AdminCreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	tag, err := h.adminService.CreateTag(r.Context(), UserFromContext(r.Context()), service.TagInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domainTagToHTTP(tag))
}

func (h *Handler) AdminDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.adminService.DeleteTag(r.Context(), UserFromContext(r.Context()), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	page, err := h.adminService.ListAuditLogs(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginatedToHTTP(page, domainAuditLogToHTTP))
}

func auditFilterFromQuery(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		Action:     strings.TrimSpace(q.Get("action")),
		TargetType: strings.TrimSpace(q.Get("target_type")),
		Page:       queryPage(r),
	}

	if raw := strings.TrimSpace(q.Get("actor_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.AuditFilter{}, domain.NewBadRequestError("actor_id must be a valid uuid")
		}
		filter.ActorID = &id
	}
	return filter, nil
}

func roleInputFromHTTP(req RoleRequest) service.RoleInput {
	return service.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: permissionsFromHTTP(req.Permissions),
	}
}
