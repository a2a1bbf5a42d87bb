package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type TeamInput struct {
	Name        string
	Slug        string
	Description string
}

type TeamService interface {
	Create(ctx context.Context, actor *domain.User, input TeamInput) (*domain.Team, error)
	ListForUser(ctx context.Context, user *domain.User) ([]*domain.TeamMembership, error)
	// Get возвращает команду и роль actor в ней; роль пуста для сотрудников с teams:read
	Get(ctx context.Context, actor *domain.User, teamID int64) (*domain.TeamMembership, error)
	Update(ctx context.Context, actor *domain.User, teamID int64, input TeamInput) (*domain.Team, error)
	Delete(ctx context.Context, actor *domain.User, teamID int64) error
	ListMembers(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamMember, error)
	UpdateMemberRole(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID, role domain.TeamRole) error
	RemoveMember(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID) error
	Leave(ctx context.Context, actor *domain.User, teamID int64) error
}
