package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type OAuthAccountRepository interface {
	Create(ctx context.Context, account *domain.OAuthAccount) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.OAuthAccount, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}
