package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type UpdateUserInput struct {
	Name        string
	IsActive    bool
	IsSuperuser bool
	RoleID      *int64
}

type RoleInput struct {
	Name        string
	Description string
	Permissions []domain.Permission
}

type TagInput struct {
	Name  string
	Color string
}

type AdminService interface {
	ListUsers(ctx context.Context, filter domain.UserFilter) (domain.Paginated[*domain.User], error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, actor *domain.User, id uuid.UUID, input UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.User, id uuid.UUID) error
	SetUserTags(ctx context.Context, actor *domain.User, id uuid.UUID, tagIDs []int64) (*domain.User, error)

	ListRoles(ctx context.Context) ([]*domain.Role, error)
	CreateRole(ctx context.Context, actor *domain.User, input RoleInput) (*domain.Role, error)
	UpdateRole(ctx context.Context, actor *domain.User, id int64, input RoleInput) (*domain.Role, error)
	DeleteRole(ctx context.Context, actor *domain.User, id int64) error

	ListTags(ctx context.Context) ([]*domain.Tag, error)
	CreateTag(ctx context.Context, actor *domain.User, input TagInput) (*domain.Tag, error)
	DeleteTag(ctx context.Context, actor *domain.User, id int64) error

	ListAuditLogs(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error)
	Stats(ctx context.Context) (*domain.UserStats, error)
}
