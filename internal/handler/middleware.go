package handler

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/flash"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (h *Handler) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

func (h *Handler) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		h.log.WithContext(r.Context()).Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.WithContext(r.Context()).Error("panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{
					Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: "internal server error"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestMeta кладёт IP и User-Agent в контекст для журнала аудита
func (h *Handler) RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithRequestMeta(r.Context(), domain.RequestMeta{
			IPAddress: clientIP(r, h.trustedProxies),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadSession не отклоняет запрос: невалидная сессия просто удаляется
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Read(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := withSession(r.Context(), sess)
		if sess.MFAPending {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		user, err := h.authService.CurrentUser(ctx, sess.UserID, sess.Version)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				h.log.WithContext(ctx).Error("load session user", "error", err)
			}
			h.sessions.Clear(w)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
	})
}

func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		pending := false
		if sess := sessionFromContext(r.Context()); sess != nil && sess.MFAPending {
			pending = true
		}

		if isAPI(r) {
			if pending {
				h.handleError(w, r, domain.ErrMFARequired)
				return
			}
			h.handleError(w, r, domain.ErrUnauthorized)
			return
		}
		if pending {
			h.pages.Redirect(w, r, "/mfa")
			return
		}
		h.pages.Redirect(w, r, "/login")
	})
}

func (h *Handler) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			h.pages.Redirect(w, r, "/dashboard")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if !h.requireVerifiedEmail || user == nil || user.IsVerified() {
			next.ServeHTTP(w, r)
			return
		}
		if isAPI(r) {
			h.handleError(w, r, domain.ErrEmailNotVerified)
			return
		}
		flash.Write(w, r, flash.Info("Please verify your email address to continue"))
		h.pages.Redirect(w, r, "/settings/profile")
	})
}

func (h *Handler) RequireSuperuser(next http.Handler) http.Handler {
	return h.requireAccess(next, func(user *domain.User) bool {
		return user.IsSuperuser
	})
}

func (h *Handler) RequireStaff(next http.Handler) http.Handler {
	return h.requireAccess(next, func(user *domain.User) bool {
		return user.IsStaff()
	})
}

func (h *Handler) RequirePermission(p domain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return h.requireAccess(next, func(user *domain.User) bool {
			return user.Can(p)
		})
	}
}

func (h *Handler) requireAccess(next http.Handler, allowed func(*domain.User) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user != nil && allowed(user) {
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			h.RequireUser(next).ServeHTTP(w, r)
			return
		}
		if isAPI(r) {
			h.handleError(w, r, domain.ErrForbidden)
			return
		}
		h.pageError(w, r, domain.ErrForbidden)
	})
}

// RateLimit ограничивает частоту запросов с одного клиента
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := service.RequestMetaFromContext(r.Context()).IPAddress
		if key == "" {
			key = clientIP(r, h.trustedProxies)
		}
		if ok, retryAfter := h.limiter.allow(key); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))
			h.log.WithContext(r.Context()).Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
			h.handleError(w, r, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP читает заголовки прокси только если соединение пришло от доверенного адреса.
// В X-Forwarded-For берётся самый правый адрес, не входящий в доверенные
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !isTrustedProxy(host, trusted) {
		return host
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		client := host
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			client = addr.Unmap().String()
			if !isTrustedProxy(client, trusted) {
				break
			}
		}
		return client
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	return host
}

func isTrustedProxy(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
