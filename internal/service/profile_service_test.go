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

type profileMocks struct {
	users    *MockUserRepository
	teams    *MockTeamRepository
	oauth    *MockOAuthAccountRepository
	tokens   *MockEmailTokenRepository
	notifier *MockNotifier
	audit    *MockAuditService
}

func setupProfileService() (ProfileService, *profileMocks) {
	m := &profileMocks{
		users:    new(MockUserRepository),
		teams:    new(MockTeamRepository),
		oauth:    new(MockOAuthAccountRepository),
		tokens:   new(MockEmailTokenRepository),
		notifier: new(MockNotifier),
		audit:    newAuditMock(),
	}
	svc := NewProfileService(m.users, m.teams, m.oauth, m.tokens, &InlineTransactor{}, testHasher, m.notifier, m.audit, testTokens, logger.Nop())
	return svc, m
}

func TestProfileService_Update(t *testing.T) {
	t.Run("смена имени без смены email", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Name == "Alice Cooper" && u.Email == "alice@example.com"
		})).Return(nil).Once()

		updated, err := svc.Update(context.Background(), user, UpdateProfileInput{Name: "Alice Cooper", Email: "Alice@example.com"})

		require.NoError(t, err)
		assert.True(t, updated.IsVerified())
		assert.Equal(t, "Alice", user.Name, "исходный пользователь не меняется")
		m.users.AssertNotCalled(t, "SetEmailVerified", mock.Anything, mock.Anything, mock.Anything)
		m.users.AssertExpectations(t)
	})

	t.Run("смена email сбрасывает подтверждение", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.users.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
		m.users.On("SetEmailVerified", mock.Anything, user.ID, false).Return(nil).Once()
		m.tokens.On("DeleteForUser", mock.Anything, user.ID, domain.PurposeVerifyEmail).Return(nil).Once()
		m.tokens.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.notifier.On("SendVerification", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com"
		}), mock.AnythingOfType("string")).Return(nil).Once()

		updated, err := svc.Update(context.Background(), user, UpdateProfileInput{Name: "Alice", Email: "new@example.com"})

		require.NoError(t, err)
		assert.False(t, updated.IsVerified())
		m.users.AssertExpectations(t)
		m.tokens.AssertExpectations(t)
		m.notifier.AssertExpectations(t)
	})

	t.Run("ошибка: email занят", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.users.On("Update", mock.Anything, mock.Anything).Return(domain.ErrEmailTaken).Once()

		_, err := svc.Update(context.Background(), user, UpdateProfileInput{Name: "Alice", Email: "bob@example.com"})

		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		m.notifier.AssertNotCalled(t, "SendVerification", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProfileService_ChangePassword(t *testing.T) {
	t.Run("пароль изменён, версия сессии обновлена", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "old-password")
		reloaded := *user
		reloaded.SessionVersion = 2

		m.users.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil).Once()
		m.users.On("GetByID", mock.Anything, user.ID).Return(&reloaded, nil).Once()
		m.notifier.On("SendPasswordChanged", mock.Anything, &reloaded).Return(nil).Once()

		updated, err := svc.ChangePassword(context.Background(), user, "old-password", "new-password")

		require.NoError(t, err)
		assert.Equal(t, 2, updated.SessionVersion)
		assert.Equal(t, []string{domain.AuditPasswordChanged}, recordedActions(m.audit))
		m.users.AssertExpectations(t)
	})

	t.Run("ошибка: неверный текущий пароль", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "old-password")

		_, err := svc.ChangePassword(context.Background(), user, "nope", "new-password")

		var domainErr *domain.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Contains(t, domainErr.Fields, "current_password")
		m.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("аккаунт без пароля задаёт первый пароль", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "")

		m.users.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).Return(nil).Once()
		m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
		m.notifier.On("SendPasswordChanged", mock.Anything, user).Return(nil).Once()

		_, err := svc.ChangePassword(context.Background(), user, "", "first-password")

		require.NoError(t, err)
		m.users.AssertExpectations(t)
	})
}

func TestProfileService_DeleteAccount(t *testing.T) {
	t.Run("аккаунт удалён", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.teams.On("SoleOwnedWithMembers", mock.Anything, user.ID).Return([]*domain.Team{}, nil).Once()
		m.teams.On("DeleteSoleMemberTeams", mock.Anything, user.ID).Return(int64(1), nil).Once()
		m.users.On("Delete", mock.Anything, user.ID).Return(nil).Once()

		require.NoError(t, svc.DeleteAccount(context.Background(), user, "long-password"))
		assert.Equal(t, []string{domain.AuditAccountDeleted}, recordedActions(m.audit))
		m.users.AssertExpectations(t)
		m.teams.AssertExpectations(t)
	})

	t.Run("ошибка удаления пользователя после очистки команд", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")
		dbErr := errors.New("db down")

		m.teams.On("SoleOwnedWithMembers", mock.Anything, user.ID).Return([]*domain.Team{}, nil).Once()
		m.teams.On("DeleteSoleMemberTeams", mock.Anything, user.ID).Return(int64(0), nil).Once()
		m.users.On("Delete", mock.Anything, user.ID).Return(dbErr).Once()

		err := svc.DeleteAccount(context.Background(), user, "long-password")

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("ошибка: последний владелец команды", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.teams.On("SoleOwnedWithMembers", mock.Anything, user.ID).Return([]*domain.Team{{ID: 1, Name: "Alpha"}}, nil).Once()

		err := svc.DeleteAccount(context.Background(), user, "long-password")

		assert.ErrorIs(t, err, domain.ErrLastOwner)
		m.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.teams.AssertNotCalled(t, "DeleteSoleMemberTeams", mock.Anything, mock.Anything)
	})
}

func TestProfileService_UnlinkOAuth(t *testing.T) {
	t.Run("ошибка: единственный способ входа", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "")

		m.oauth.On("ListForUser", mock.Anything, user.ID).Return([]*domain.OAuthAccount{
			{Provider: "github", UserID: user.ID},
		}, nil).Once()

		err := svc.UnlinkOAuth(context.Background(), user, "github")

		assert.ErrorIs(t, err, domain.ErrLastLoginMethod)
		m.oauth.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("отвязка при наличии второго провайдера", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "")

		m.oauth.On("ListForUser", mock.Anything, user.ID).Return([]*domain.OAuthAccount{
			{Provider: "github"}, {Provider: "google"},
		}, nil).Once()
		m.oauth.On("Delete", mock.Anything, user.ID, "google").Return(nil).Once()

		require.NoError(t, svc.UnlinkOAuth(context.Background(), user, "google"))
		assert.Equal(t, []string{domain.AuditOAuthUnlinked}, recordedActions(m.audit))
	})

	t.Run("ошибка: провайдер не привязан", func(t *testing.T) {
		svc, m := setupProfileService()
		user := newTestUser(t, "long-password")

		m.oauth.On("ListForUser", mock.Anything, user.ID).Return(nil, nil).Once()

		err := svc.UnlinkOAuth(context.Background(), user, "google")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
