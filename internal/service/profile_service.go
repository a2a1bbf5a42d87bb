package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	Name  string
	Email string
}

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error)
	// ChangePassword возвращает пользователя с новой версией сессии
	ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) (*domain.User, error)
	DeleteAccount(ctx context.Context, user *domain.User, password string) error
	ListOAuthAccounts(ctx context.Context, user *domain.User) ([]*domain.OAuthAccount, error)
	UnlinkOAuth(ctx context.Context, user *domain.User, provider string) error
}
