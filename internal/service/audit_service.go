package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type AuditEntry struct {
	Actor      *domain.User
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error)
}
