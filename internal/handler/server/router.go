package server

import (
	"net/http"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/handler"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

func SetupRoutes(r *mux.Router, h *handler.Handler) {
	r.Use(routeSpanName, h.RequestID, h.Logging, h.Recovery, h.RequestMeta, h.LoadSession)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	setupAuthRoutes(api, h)
	setupProfileRoutes(api, h)
	setupTeamRoutes(api, h)
	setupAdminRoutes(api, h)

	setupPageRoutes(r, h)
}

func setupAuthRoutes(api *mux.Router, h *handler.Handler) {
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(h.RateLimit)

	auth.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/mfa", h.CompleteMFA).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", h.ResetPassword).Methods(http.MethodPost)
	auth.Handle("/verify-email/resend", chain(h.ResendVerification, h.RequireUser)).Methods(http.MethodPost)
}

func setupProfileRoutes(api *mux.Router, h *handler.Handler) {
	me := api.PathPrefix("/me").Subrouter()
	me.Use(h.RequireUser)

	me.HandleFunc("", h.GetProfile).Methods(http.MethodGet)
	me.HandleFunc("", h.UpdateProfile).Methods(http.MethodPut)
	me.HandleFunc("", h.DeleteAccount).Methods(http.MethodDelete)
	me.HandleFunc("/password", h.ChangePassword).Methods(http.MethodPut)
	me.HandleFunc("/oauth", h.ListOAuthAccounts).Methods(http.MethodGet)
	me.HandleFunc("/oauth/{provider}", h.UnlinkOAuth).Methods(http.MethodDelete)

	me.HandleFunc("/mfa/setup", h.BeginMFASetup).Methods(http.MethodPost)
	me.HandleFunc("/mfa/enable", h.EnableMFA).Methods(http.MethodPost)
	me.HandleFunc("/mfa/disable", h.DisableMFA).Methods(http.MethodPost)
	me.HandleFunc("/mfa/backup-codes", h.RegenerateBackupCodes).Methods(http.MethodPost)
}

func setupTeamRoutes(api *mux.Router, h *handler.Handler) {
	teams := api.PathPrefix("/teams").Subrouter()
	teams.Use(h.RequireUser, h.RequireVerified)

	teams.HandleFunc("", h.ListTeams).Methods(http.MethodGet)
	teams.HandleFunc("", h.CreateTeam).Methods(http.MethodPost)
	teams.HandleFunc("/{id:[0-9]+}", h.GetTeam).Methods(http.MethodGet)
	teams.HandleFunc("/{id:[0-9]+}", h.UpdateTeam).Methods(http.MethodPut)
	teams.HandleFunc("/{id:[0-9]+}", h.DeleteTeam).Methods(http.MethodDelete)
	teams.HandleFunc("/{id:[0-9]+}/members", h.ListMembers).Methods(http.MethodGet)
	teams.HandleFunc("/{id:[0-9]+}/members/{userID}", h.UpdateMemberRole).Methods(http.MethodPut)
	teams.HandleFunc("/{id:[0-9]+}/members/{userID}", h.RemoveMember).Methods(http.MethodDelete)
	teams.HandleFunc("/{id:[0-9]+}/leave", h.LeaveTeam).Methods(http.MethodPost)
	teams.HandleFunc("/{id:[0-9]+}/invitations", h.ListInvitations).Methods(http.MethodGet)
	teams.HandleFunc("/{id:[0-9]+}/invitations", h.CreateInvitation).Methods(http.MethodPost)
	teams.HandleFunc("/{id:[0-9]+}/invitations/{invID:[0-9]+}", h.RevokeInvitation).Methods(http.MethodDelete)

	api.Handle("/invitations/accept", chain(h.AcceptInvitation, h.RequireUser, h.RequireVerified)).
		Methods(http.MethodPost)
}

func setupAdminRoutes(api *mux.Router, h *handler.Handler) {
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireUser, h.RequireStaff)

	usersRead := h.RequirePermission(domain.PermUsersRead)
	usersWrite := h.RequirePermission(domain.PermUsersWrite)
	rolesRead := h.RequirePermission(domain.PermRolesRead)
	tagsWrite := h.RequirePermission(domain.PermTagsWrite)
	auditRead := h.RequirePermission(domain.PermAuditRead)

	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)

	admin.Handle("/users", chain(h.AdminListUsers, usersRead)).Methods(http.MethodGet)
	admin.Handle("/users/{id}", chain(h.AdminGetUser, usersRead)).Methods(http.MethodGet)
	admin.Handle("/users/{id}", chain(h.AdminUpdateUser, usersWrite)).Methods(http.MethodPut)
	admin.Handle("/users/{id}", chain(h.AdminDeleteUser, usersWrite)).Methods(http.MethodDelete)
	admin.Handle("/users/{id}/tags", chain(h.AdminSetUserTags, usersWrite)).Methods(http.MethodPut)

	// роль может выдать любые права, поэтому изменять роли может только суперпользователь
	admin.Handle("/roles", chain(h.AdminListRoles, rolesRead)).Methods(http.MethodGet)
	admin.Handle("/roles", chain(h.AdminCreateRole, h.RequireSuperuser)).Methods(http.MethodPost)
	admin.Handle("/roles/{id:[0-9]+}", chain(h.AdminUpdateRole, h.RequireSuperuser)).Methods(http.MethodPut)
	admin.Handle("/roles/{id:[0-9]+}", chain(h.AdminDeleteRole, h.RequireSuperuser)).Methods(http.MethodDelete)

	admin.Handle("/tags", chain(h.AdminListTags, usersRead)).Methods(http.MethodGet)
	admin.Handle("/tags", chain(h.AdminCreateTag, tagsWrite)).Methods(http.MethodPost)
	admin.Handle("/tags/{id:[0-9]+}", chain(h.AdminDeleteTag, tagsWrite)).Methods(http.MethodDelete)

	admin.Handle("/audit-logs", chain(h.AdminListAuditLogs, auditRead)).Methods(http.MethodGet)
}

func setupPageRoutes(r *mux.Router, h *handler.Handler) {
	r.HandleFunc("/verify-email", h.VerifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/oauth/{provider}/start", h.OAuthStart).Methods(http.MethodGet)
	r.HandleFunc("/oauth/{provider}/callback", h.OAuthCallback).Methods(http.MethodGet)

	pages := r.Methods(http.MethodGet).Subrouter()
	pages.Use(h.Pages().Middleware)

	pages.HandleFunc("/", h.HomePage)
	pages.HandleFunc("/mfa", h.MFAPage)
	pages.HandleFunc("/invitations/{token}", h.InvitationPage)

	guest := pages.NewRoute().Subrouter()
	guest.Use(h.RequireGuest)
	guest.HandleFunc("/login", h.LoginPage)
	guest.HandleFunc("/register", h.RegisterPage)
	guest.HandleFunc("/forgot-password", h.ForgotPasswordPage)
	guest.HandleFunc("/reset-password", h.ResetPasswordPage)

	user := pages.NewRoute().Subrouter()
	user.Use(h.RequireUser)
	user.HandleFunc("/dashboard", h.DashboardPage)
	user.HandleFunc("/settings/profile", h.ProfileSettingsPage)
	user.HandleFunc("/settings/security", h.SecuritySettingsPage)
	user.Handle("/teams", chain(h.TeamsPage, h.RequireVerified))
	user.Handle("/teams/{id}", chain(h.TeamPage, h.RequireVerified))

	admin := pages.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireUser, h.RequireStaff)
	admin.HandleFunc("", h.AdminDashboardPage)
	admin.Handle("/users", chain(h.AdminUsersPage, h.RequirePermission(domain.PermUsersRead)))
	admin.Handle("/roles", chain(h.AdminRolesPage, h.RequirePermission(domain.PermRolesRead)))
	admin.Handle("/audit-logs", chain(h.AdminAuditLogsPage, h.RequirePermission(domain.PermAuditRead)))
}

// chain оборачивает обработчик middleware; первый в списке выполняется первым
func chain(fn http.HandlerFunc, middlewares ...mux.MiddlewareFunc) http.Handler {
	var next http.Handler = fn
	for i := len(middlewares) - 1; i >= 0; i-- {
		next = middlewares[i](next)
	}
	return next
}

// routeSpanName переименовывает спан otelhttp в шаблон маршрута, чтобы id не попадали в имя
func routeSpanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				trace.SpanFromContext(r.Context()).SetName(r.Method + " " + tpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}
