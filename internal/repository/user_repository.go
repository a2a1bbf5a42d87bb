package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetMFA(ctx context.Context, id uuid.UUID, enabled bool, secret string) error
	// UseTOTPStep фиксирует использованный шаг TOTP; false, если этот или более поздний шаг уже был
	UseTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error)
	TouchLogin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error)
	SetTags(ctx context.Context, id uuid.UUID, tagIDs []int64) error
	Stats(ctx context.Context) (*domain.UserStats, error)
}
