package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/inertia"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/oauth"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/bagdasarian/teamhub/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Pinger - проверка доступности базы для /healthz
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth        service.AuthService
	MFA         service.MFAService
	Profile     service.ProfileService
	Teams       service.TeamService
	Invitations service.InvitationService
	Admin       service.AdminService
	OAuth       service.OAuthService
	Providers   *oauth.Registry
	Sessions    *session.Manager
	DB          Pinger
}

type Handler struct {
	authService       service.AuthService
	mfaService        service.MFAService
	profileService    service.ProfileService
	teamService       service.TeamService
	invitationService service.InvitationService
	adminService      service.AdminService
	oauthService      service.OAuthService

	providers *oauth.Registry
	sessions  *session.Manager
	db        Pinger
	pages     *inertia.Renderer
	limiter   *rateLimiter
	log       *logger.Logger

	trustedProxies []netip.Prefix

	appName              string
	secureCookies        bool
	requireVerifiedEmail bool
}

func NewHandler(cfg *config.Config, deps Deps, log *logger.Logger) (*Handler, error) {
	h := &Handler{
		authService:          deps.Auth,
		mfaService:           deps.MFA,
		profileService:       deps.Profile,
		teamService:          deps.Teams,
		invitationService:    deps.Invitations,
		adminService:         deps.Admin,
		oauthService:         deps.OAuth,
		providers:            deps.Providers,
		sessions:             deps.Sessions,
		db:                   deps.DB,
		limiter:              newRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst),
		log:                  log,
		appName:              cfg.App.Name,
		secureCookies:        cfg.Session.Secure,
		requireVerifiedEmail: cfg.App.RequireVerifiedEmail,
	}

	trusted, err := cfg.App.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}
	h.trustedProxies = trusted

	pages, err := inertia.New(cfg.App.Name, cfg.App.AssetVersion, h.sharedProps)
	if err != nil {
		return nil, fmt.Errorf("create page renderer: %w", err)
	}
	h.pages = pages

	return h, nil
}

// Pages нужен роутеру для проверки версии ассетов
func (h *Handler) Pages() *inertia.Renderer {
	return h.pages
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.WithContext(r.Context()).Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext возвращает пользователя активной сессии или nil
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func withSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

func (h *Handler) startSession(w http.ResponseWriter, user *domain.User, mfaPending bool) error {
	return h.sessions.Issue(w, &session.Session{
		UserID:     user.ID,
		Version:    user.SessionVersion,
		MFAPending: mfaPending,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewBadRequestError("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func pathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewBadRequestError(name + " must be a positive integer")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, domain.NewBadRequestError(name + " must be a valid uuid")
	}
	return id, nil
}

func queryPage(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return domain.Page{Number: number, PerPage: perPage}
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		h.handleError(w, r, domain.ErrNotFound)
		return
	}
	h.pageError(w, r, domain.NewNotFoundError("page"))
}
