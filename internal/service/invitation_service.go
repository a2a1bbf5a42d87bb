package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type InvitationService interface {
	Invite(ctx context.Context, actor *domain.User, teamID int64, email string, role domain.TeamRole) (*domain.TeamInvitation, error)
	ListPending(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamInvitation, error)
	Revoke(ctx context.Context, actor *domain.User, teamID, invitationID int64) error
	// Preview показывает команду и адрес приглашения до входа в аккаунт
	Preview(ctx context.Context, token string) (*domain.TeamInvitation, error)
	Accept(ctx context.Context, user *domain.User, token string) (*domain.TeamInvitation, error)
}
