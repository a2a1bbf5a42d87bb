package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
}
