package repository

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, int, error)
}
