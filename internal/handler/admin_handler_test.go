package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_AdminListUsers(t *testing.T) {
	h, m := setupHandler(t)
	users := []*domain.User{testUser(), testUser()}

	m.admin.On("ListUsers", mock.Anything, domain.UserFilter{
		Search: "ali",
		Page:   domain.Page{Number: 2, PerPage: 1},
	}).Return(domain.NewPaginated(users[:1], 2, domain.Page{Number: 2, PerPage: 1}), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?search=ali&page=2&per_page=1", nil)
	rec := httptest.NewRecorder()

	h.AdminListUsers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[PageResponse[UserResponse]](t, rec)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.TotalPages)
	assert.Len(t, body.Items, 1)
}

func TestHandler_AdminUpdateUser(t *testing.T) {
	t.Run("пользователь обновлён", func(t *testing.T) {
		h, m := setupHandler(t)
		actor := testUser()
		actor.IsSuperuser = true
		target := testUser()
		roleID := int64(3)

		m.admin.On("UpdateUser", mock.Anything, actor, target.ID, service.UpdateUserInput{
			Name:     "Bob",
			IsActive: true,
			RoleID:   &roleID,
		}).Return(target, nil).Once()

		req := asUser(httptest.NewRequest(http.MethodPut, "/", jsonBody(t, UpdateUserRequest{
			Name:     "Bob",
			IsActive: true,
			RoleID:   &roleID,
		})), actor)
		req = mux.SetURLVars(req, map[string]string{"id": target.ID.String()})
		rec := httptest.NewRecorder()

		h.AdminUpdateUser(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		m.admin.AssertExpectations(t)
	})

	t.Run("ошибка: отключить себя нельзя", func(t *testing.T) {
		h, m := setupHandler(t)
		actor := testUser()

		m.admin.On("UpdateUser", mock.Anything, actor, actor.ID, mock.Anything).
			Return(nil, domain.NewBadRequestError("you cannot deactivate your own account")).Once()

		req := asUser(httptest.NewRequest(http.MethodPut, "/", jsonBody(t, UpdateUserRequest{Name: "Alice"})), actor)
		req = mux.SetURLVars(req, map[string]string{"id": actor.ID.String()})
		rec := httptest.NewRecorder()

		h.AdminUpdateUser(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "you cannot deactivate your own account", decodeBody[ErrorResponse](t, rec).Error.Message)
	})
}

func TestHandler_AdminCreateRole(t *testing.T) {
	h, m := setupHandler(t)
	actor := testUser()
	actor.IsSuperuser = true

	m.admin.On("CreateRole", mock.Anything, actor, service.RoleInput{
		Name:        "support",
		Permissions: []domain.Permission{domain.PermUsersRead},
	}).Return(&domain.Role{ID: 9, Name: "support", Permissions: []domain.Permission{domain.PermUsersRead}}, nil).Once()

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/admin/roles", jsonBody(t, RoleRequest{
		Name:        "support",
		Permissions: []string{"users:read"},
	})), actor)
	rec := httptest.NewRecorder()

	h.AdminCreateRole(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[RoleResponse](t, rec)
	assert.Equal(t, []string{"users:read"}, body.Permissions)
}

func TestHandler_AdminListAuditLogs(t *testing.T) {
	t.Run("фильтры из query", func(t *testing.T) {
		h, m := setupHandler(t)
		actorID := uuid.New()
		entry := &domain.AuditLog{ID: 1, ActorID: &actorID, Action: "user.login", CreatedAt: time.Now()}

		m.admin.On("ListAuditLogs", mock.Anything, domain.AuditFilter{
			ActorID: &actorID,
			Action:  "user.login",
			Page:    domain.Page{Number: 1},
		}).Return(domain.NewPaginated([]*domain.AuditLog{entry}, 1, domain.Page{Number: 1}), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?action=user.login&page=1&actor_id="+actorID.String(), nil)
		rec := httptest.NewRecorder()

		h.AdminListAuditLogs(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[PageResponse[AuditLogResponse]](t, rec)
		require.Len(t, body.Items, 1)
		assert.Equal(t, actorID.String(), *body.Items[0].ActorID)
	})

	t.Run("ошибка: некорректный actor_id", func(t *testing.T) {
		h, m := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?actor_id=zzz", nil)
		rec := httptest.NewRecorder()

		h.AdminListAuditLogs(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		m.admin.AssertNotCalled(t, "ListAuditLogs", mock.Anything, mock.Anything)
	})
}

func TestHandler_AdminStats(t *testing.T) {
	h, m := setupHandler(t)

	m.admin.On("Stats", mock.Anything).Return(&domain.UserStats{Users: 5, VerifiedUsers: 4, MFAUsers: 2, Teams: 3}, nil).Once()

	rec := httptest.NewRecorder()
	h.AdminStats(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatsResponse{Users: 5, VerifiedUsers: 4, MFAUsers: 2, Teams: 3}, decodeBody[StatsResponse](t, rec))
}
