package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/flash"
	"github.com/bagdasarian/teamhub/internal/inertia"
	"github.com/gorilla/mux"
)

// sharedProps добавляются к каждой странице
func (h *Handler) sharedProps(w http.ResponseWriter, r *http.Request) inertia.Props {
	var notice any
	if n, ok := flash.ReadAndClear(w, r); ok {
		notice = n
	}

	return inertia.Props{
		"app": map[string]any{
			"name":            h.appName,
			"oauth_providers": h.providers.Names(),
		},
		"auth": map[string]any{
			"user": domainUserPtrToHTTP(UserFromContext(r.Context())),
		},
		"flash": notice,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, component string, props inertia.Props) {
	if err := h.pages.Render(w, r, component, props); err != nil {
		h.log.WithContext(r.Context()).Error("render page", "component", component, "error", err)
	}
}

func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) != nil {
		h.pages.Redirect(w, r, "/dashboard")
		return
	}
	h.render(w, r, "Welcome", nil)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Auth/Login", nil)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Auth/Register", nil)
}

func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Auth/ForgotPassword", nil)
}

func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Auth/ResetPassword", inertia.Props{
		"token": r.URL.Query().Get("token"),
	})
}

func (h *Handler) MFAPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess == nil || !sess.MFAPending {
		h.pages.Redirect(w, r, "/login")
		return
	}
	h.render(w, r, "Auth/MFAChallenge", nil)
}

func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.teamService.ListForUser(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, "Dashboard", inertia.Props{
		"teams": domainMembershipsToHTTP(memberships),
	})
}

func (h *Handler) ProfileSettingsPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.profileService.ListOAuthAccounts(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, "Settings/Profile", inertia.Props{
		"oauth_accounts": domainOAuthAccountsToHTTP(accounts),
	})
}

func (h *Handler) SecuritySettingsPage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	remaining, err := h.mfaService.RemainingBackupCodes(r.Context(), user)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, "Settings/Security", inertia.Props{
		"mfa_enabled":            user.MFAEnabled,
		"backup_codes_remaining": remaining,
	})
}

func (h *Handler) TeamsPage(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.teamService.ListForUser(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, "Teams/Index", inertia.Props{
		"teams": domainMembershipsToHTTP(memberships),
	})
}

func (h *Handler) TeamPage(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt64(r, "id")
	if err != nil {
		h.pageError(w, r, domain.NewNotFoundError("team"))
		return
	}

	user := UserFromContext(r.Context())
	membership, err := h.teamService.Get(r.Context(), user, teamID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), user, teamID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	invitations := []InvitationResponse{}
	if membership.Role.CanManage() {
		pending, err := h.invitationService.ListPending(r.Context(), user, teamID)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		invitations = domainInvitationsToHTTP(pending)
	}

	h.render(w, r, "Teams/Show", inertia.Props{
		"team":        domainTeamToHTTP(&membership.Team),
		"role":        string(membership.Role),
		"members":     domainMembersToHTTP(members),
		"invitations": invitations,
	})
}

// InvitationPage доступна без входа: гость видит команду и адрес приглашения
func (h *Handler) InvitationPage(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	inv, err := h.invitationService.Preview(r.Context(), token)
	if err != nil {
		h.render(w, r, "Invitations/Show", inertia.Props{
			"token": token,
			"error": errorMessage(err),
		})
		return
	}

	user := UserFromContext(r.Context())
	h.render(w, r, "Invitations/Show", inertia.Props{
		"token":        token,
		"invitation":   domainInvitationToHTTP(inv),
		"email_match":  user != nil && strings.EqualFold(user.Email, inv.Email),
		"needs_signin": user == nil,
	})
}

func (h *Handler) AdminDashboardPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, "Admin/Dashboard", inertia.Props{
		"stats": domainStatsToHTTP(stats),
	})
}

func (h *Handler) AdminUsersPage(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	users, err := h.adminService.ListUsers(r.Context(), domain.UserFilter{Search: search, Page: queryPage(r)})
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	roles, err := h.adminService.ListRoles(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	tags, err := h.adminService.ListTags(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.render(w, r, "Admin/Users", inertia.Props{
		"users":   paginatedToHTTP(users, domainUserToHTTP),
		"roles":   domainRolesToHTTP(roles),
		"tags":    domainTagsToHTTP(tags),
		"filters": map[string]string{"search": search},
	})
}

func (h *Handler) AdminRolesPage(w http.ResponseWriter, r *http.Request) {
	roles, err := h.adminService.ListRoles(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	permissions := make([]string, 0, len(domain.KnownPermissions))
	for _, p := range domain.KnownPermissions {
		permissions = append(permissions, string(p))
	}

	h.render(w, r, "Admin/Roles", inertia.Props{
		"roles":       domainRolesToHTTP(roles),
		"permissions": permissions,
	})
}

func (h *Handler) AdminAuditLogsPage(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	logs, err := h.adminService.ListAuditLogs(r.Context(), filter)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.render(w, r, "Admin/AuditLogs", inertia.Props{
		"logs": paginatedToHTTP(logs, domainAuditLogToHTTP),
		"filters": map[string]string{
			"action":      filter.Action,
			"target_type": filter.TargetType,
			"actor_id":    r.URL.Query().Get("actor_id"),
		},
	})
}

func errorMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "Something went wrong"
}
