package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

// Notifier - транзакционные письма; реализация в пакете mail
type Notifier interface {
	SendVerification(ctx context.Context, user *domain.User, token string) error
	SendPasswordReset(ctx context.Context, user *domain.User, token string) error
	SendInvitation(ctx context.Context, inv *domain.TeamInvitation, inviterName, token string) error
	SendPasswordChanged(ctx context.Context, user *domain.User) error
	SendMFAEnabled(ctx context.Context, user *domain.User) error
}
