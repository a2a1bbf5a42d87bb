package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

// MFASetup - секрет и otpauth:// URL для приложения-аутентификатора
type MFASetup struct {
	Secret string
	URL    string
}

// MFAService управляет TOTP и резервными кодами.
// confirmation - текущий пароль, а для аккаунтов без пароля - код второго фактора.
type MFAService interface {
	BeginSetup(ctx context.Context, user *domain.User) (*MFASetup, error)
	Enable(ctx context.Context, user *domain.User, code string) ([]string, error)
	Disable(ctx context.Context, user *domain.User, confirmation string) error
	RegenerateBackupCodes(ctx context.Context, user *domain.User, confirmation string) ([]string, error)
	RemainingBackupCodes(ctx context.Context, user *domain.User) (int, error)
}
