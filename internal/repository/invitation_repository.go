package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.TeamInvitation) error
	GetByID(ctx context.Context, id int64) (*domain.TeamInvitation, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.TeamInvitation, error)
	ListPendingForTeam(ctx context.Context, teamID int64) ([]*domain.TeamInvitation, error)
	FindPending(ctx context.Context, teamID int64, email string) (*domain.TeamInvitation, error)
	MarkAccepted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
