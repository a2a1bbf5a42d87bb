package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TeamMembership, error)
	AddMember(ctx context.Context, member *domain.TeamMember) error
	GetMember(ctx context.Context, teamID int64, userID uuid.UUID) (*domain.TeamMember, error)
	ListMembers(ctx context.Context, teamID int64) ([]*domain.TeamMember, error)
	UpdateMemberRole(ctx context.Context, teamID int64, userID uuid.UUID, role domain.TeamRole) error
	RemoveMember(ctx context.Context, teamID int64, userID uuid.UUID) error
	CountOwners(ctx context.Context, teamID int64) (int, error)
	// SoleOwnedWithMembers - команды, где пользователь единственный владелец и есть другие участники
	SoleOwnedWithMembers(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error)
	DeleteSoleMemberTeams(ctx context.Context, userID uuid.UUID) (int64, error)
}
