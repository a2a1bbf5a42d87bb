package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
)

type auditService struct {
	auditRepo repository.AuditRepository
	log       *logger.Logger
}

// NewAuditService создает новый экземпляр AuditService
func NewAuditService(auditRepo repository.AuditRepository, log *logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

// Record пишет событие в БД и в лог; ошибка записи не прерывает основную операцию
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	meta := RequestMetaFromContext(ctx)

	log := &domain.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Metadata:   entry.Metadata,
	}
	if entry.Actor != nil && log.ActorID == nil {
		id := entry.Actor.ID
		log.ActorID = &id
		log.ActorEmail = entry.Actor.Email
	}

	fields := []any{
		"action", log.Action,
		"target_type", log.TargetType,
		"target_id", log.TargetID,
		"ip", log.IPAddress,
	}
	if log.ActorID != nil {
		fields = append(fields, "actor_id", log.ActorID.String())
	}
	s.log.WithContext(ctx).Audit("audit event", fields...)

	if err := s.auditRepo.Create(ctx, log); err != nil {
		s.log.WithContext(ctx).Error("failed to store audit event", "action", log.Action, "error", err)
	}
}

func (s *auditService) List(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error) {
	filter.Page = filter.Page.Normalize()

	entries, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return domain.Paginated[*domain.AuditLog]{}, err
	}

	return domain.NewPaginated(entries, total, filter.Page), nil
}
