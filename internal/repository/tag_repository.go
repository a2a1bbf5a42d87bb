package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Tag, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error)
}
