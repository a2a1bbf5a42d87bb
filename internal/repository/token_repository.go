package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type EmailTokenRepository interface {
	Create(ctx context.Context, token *domain.EmailToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.EmailToken, error)
	MarkUsed(ctx context.Context, id int64) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error
}

type BackupCodeRepository interface {
	Replace(ctx context.Context, userID uuid.UUID, hashes []string) error
	// Consume помечает код использованным; false, если кода нет или он уже использован
	Consume(ctx context.Context, userID uuid.UUID, hash string) (bool, error)
	CountRemaining(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}
