package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupMFAService() (MFAService, *MockUserRepository, *MockBackupCodeRepository, *MockNotifier, *MockAuditService) {
	users := new(MockUserRepository)
	backup := new(MockBackupCodeRepository)
	notifier := new(MockNotifier)
	audit := newAuditMock()
	svc := NewMFAService(users, backup, &InlineTransactor{}, testHasher, notifier, audit, "Teamhub", logger.Nop())
	return svc, users, backup, notifier, audit
}

func TestMFAService_BeginSetup(t *testing.T) {
	t.Run("секрет сохранён, MFA ещё выключена", func(t *testing.T) {
		svc, users, _, _, _ := setupMFAService()
		user := newTestUser(t, "long-password")

		users.On("SetMFA", mock.Anything, user.ID, false, mock.AnythingOfType("string")).Return(nil).Once()

		setup, err := svc.BeginSetup(context.Background(), user)

		require.NoError(t, err)
		assert.NotEmpty(t, setup.Secret)
		assert.Contains(t, setup.URL, "otpauth://totp/")
		assert.Equal(t, setup.Secret, user.TOTPSecret)
		assert.False(t, user.MFAEnabled)
		users.AssertExpectations(t)
	})

	t.Run("ошибка: MFA уже включена", func(t *testing.T) {
		svc, _, _, _, _ := setupMFAService()
		user := newTestUser(t, "long-password")
		user.MFAEnabled = true

		_, err := svc.BeginSetup(context.Background(), user)

		assert.ErrorIs(t, err, domain.ErrMFAAlreadyEnabled)
	})
}

func TestMFAService_Enable(t *testing.T) {
	key, err := security.GenerateTOTP("Teamhub", "alice@example.com")
	require.NoError(t, err)

	t.Run("MFA включена, выданы резервные коды", func(t *testing.T) {
		svc, users, backup, notifier, audit := setupMFAService()
		user := newTestUser(t, "long-password")
		user.TOTPSecret = key.Secret
		code, err := totp.GenerateCode(key.Secret, time.Now())
		require.NoError(t, err)

		users.On("SetMFA", mock.Anything, user.ID, true, key.Secret).Return(nil).Once()
		users.On("UseTOTPStep", mock.Anything, user.ID, mock.AnythingOfType("int64")).Return(true, nil).Once()
		backup.On("Replace", mock.Anything, user.ID, mock.MatchedBy(func(h []string) bool {
			return len(h) == security.BackupCodeCount
		})).Return(nil).Once()
		notifier.On("SendMFAEnabled", mock.Anything, user).Return(nil).Once()

		codes, err := svc.Enable(context.Background(), user, code)

		require.NoError(t, err)
		assert.Len(t, codes, security.BackupCodeCount)
		assert.True(t, user.MFAEnabled)
		assert.Equal(t, []string{domain.AuditMFAEnabled}, recordedActions(audit))
		users.AssertExpectations(t)
		backup.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("ошибка: неверный код", func(t *testing.T) {
		svc, users, _, _, _ := setupMFAService()
		user := newTestUser(t, "long-password")
		user.TOTPSecret = key.Secret

		_, err := svc.Enable(context.Background(), user, "12345")

		assert.ErrorIs(t, err, domain.ErrInvalidMFACode)
		users.AssertNotCalled(t, "SetMFA", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка: шаг кода уже использован", func(t *testing.T) {
		svc, users, backup, _, audit := setupMFAService()
		user := newTestUser(t, "long-password")
		user.TOTPSecret = key.Secret
		code, err := totp.GenerateCode(key.Secret, time.Now())
		require.NoError(t, err)

		users.On("SetMFA", mock.Anything, user.ID, true, key.Secret).Return(nil).Once()
		users.On("UseTOTPStep", mock.Anything, user.ID, mock.AnythingOfType("int64")).Return(false, nil).Once()

		_, err = svc.Enable(context.Background(), user, code)

		assert.ErrorIs(t, err, domain.ErrInvalidMFACode)
		assert.False(t, user.MFAEnabled)
		assert.Empty(t, recordedActions(audit))
		backup.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка: настройка не начата", func(t *testing.T) {
		svc, _, _, _, _ := setupMFAService()
		user := newTestUser(t, "long-password")

		_, err := svc.Enable(context.Background(), user, "123456")

		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestMFAService_Disable(t *testing.T) {
	t.Run("отключение с паролем", func(t *testing.T) {
		svc, users, backup, _, audit := setupMFAService()
		user := newTestUser(t, "long-password")
		user.MFAEnabled = true
		user.TOTPSecret = "SECRET"

		users.On("SetMFA", mock.Anything, user.ID, false, "").Return(nil).Once()
		backup.On("DeleteForUser", mock.Anything, user.ID).Return(nil).Once()

		err := svc.Disable(context.Background(), user, "long-password")

		require.NoError(t, err)
		assert.False(t, user.MFAEnabled)
		assert.Empty(t, user.TOTPSecret)
		assert.Equal(t, []string{domain.AuditMFADisabled}, recordedActions(audit))
		users.AssertExpectations(t)
		backup.AssertExpectations(t)
	})

	t.Run("ошибка: неверный пароль", func(t *testing.T) {
		svc, users, _, _, _ := setupMFAService()
		user := newTestUser(t, "long-password")
		user.MFAEnabled = true

		err := svc.Disable(context.Background(), user, "wrong-password")

		var domainErr *domain.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, domain.CodeValidation, domainErr.Code)
		users.AssertNotCalled(t, "SetMFA", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("аккаунт без пароля подтверждает резервным кодом", func(t *testing.T) {
		svc, users, backup, _, _ := setupMFAService()
		user := newTestUser(t, "")
		user.MFAEnabled = true

		backup.On("Consume", mock.Anything, user.ID, security.HashBackupCode("wxyz-2345")).Return(true, nil).Once()
		users.On("SetMFA", mock.Anything, user.ID, false, "").Return(nil).Once()
		backup.On("DeleteForUser", mock.Anything, user.ID).Return(nil).Once()

		require.NoError(t, svc.Disable(context.Background(), user, "wxyz-2345"))
		backup.AssertExpectations(t)
	})

	t.Run("ошибка: MFA не включена", func(t *testing.T) {
		svc, _, _, _, _ := setupMFAService()

		err := svc.Disable(context.Background(), newTestUser(t, "long-password"), "long-password")

		assert.ErrorIs(t, err, domain.ErrMFANotEnabled)
	})
}

func TestMFAService_RegenerateBackupCodes(t *testing.T) {
	svc, _, backup, _, audit := setupMFAService()
	user := newTestUser(t, "long-password")
	user.MFAEnabled = true

	backup.On("Replace", mock.Anything, user.ID, mock.Anything).Return(nil).Once()

	codes, err := svc.RegenerateBackupCodes(context.Background(), user, "long-password")

	require.NoError(t, err)
	assert.Len(t, codes, security.BackupCodeCount)
	assert.Equal(t, []string{domain.AuditBackupCodesRenewed}, recordedActions(audit))
	backup.AssertExpectations(t)
}

func TestMFAService_RemainingBackupCodes(t *testing.T) {
	svc, _, backup, _, _ := setupMFAService()
	user := newTestUser(t, "long-password")

	count, err := svc.RemainingBackupCodes(context.Background(), user)
	require.NoError(t, err)
	assert.Zero(t, count)

	user.MFAEnabled = true
	backup.On("CountRemaining", mock.Anything, user.ID).Return(7, nil).Once()

	count, err = svc.RemainingBackupCodes(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
