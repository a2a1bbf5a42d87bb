package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Record(t *testing.T) {
	t.Run("данные запроса и автор попадают в запись", func(t *testing.T) {
		repo := new(MockAuditRepository)
		svc := NewAuditService(repo, logger.Nop())
		actor := newTestUser(t, "")
		ctx := WithRequestMeta(context.Background(), domain.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "curl/8.0"})

		repo.On("Create", ctx, mock.MatchedBy(func(e *domain.AuditLog) bool {
			return *e.ActorID == actor.ID &&
				e.ActorEmail == actor.Email &&
				e.Action == domain.AuditTeamCreated &&
				e.IPAddress == "10.0.0.1" &&
				e.UserAgent == "curl/8.0" &&
				e.Metadata["slug"] == "alpha"
		})).Return(nil).Once()

		svc.Record(ctx, AuditEntry{
			Actor:      actor,
			Action:     domain.AuditTeamCreated,
			TargetType: "team",
			TargetID:   "1",
			Metadata:   map[string]any{"slug": "alpha"},
		})

		repo.AssertExpectations(t)
	})

	t.Run("ошибка записи не пробрасывается", func(t *testing.T) {
		repo := new(MockAuditRepository)
		svc := NewAuditService(repo, logger.Nop())

		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		assert.NotPanics(t, func() {
			svc.Record(context.Background(), AuditEntry{Action: domain.AuditUserLoginFailed})
		})
		repo.AssertExpectations(t)
	})
}

func TestAuditService_List(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, logger.Nop())

	repo.On("List", mock.Anything, domain.AuditFilter{
		Action: "user.login",
		Page:   domain.Page{Number: 1, PerPage: domain.DefaultPerPage},
	}).Return([]*domain.AuditLog{{ID: 1}}, 1, nil).Once()

	page, err := svc.List(context.Background(), domain.AuditFilter{Action: "user.login"})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Len(t, page.Items, 1)
}

func TestRequestMetaFromContext(t *testing.T) {
	assert.Equal(t, domain.RequestMeta{}, RequestMetaFromContext(context.Background()))

	ctx := WithRequestMeta(context.Background(), domain.RequestMeta{IPAddress: "::1"})
	assert.Equal(t, "::1", RequestMetaFromContext(ctx).IPAddress)
}
