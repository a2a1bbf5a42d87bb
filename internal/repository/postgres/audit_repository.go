package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type auditRepository struct {
	db DBExecutor
}

func NewAuditRepository(db *sql.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (actor_id, action, target_type, target_id, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.IPAddress,
		entry.UserAgent,
		raw,
		time.Now().UTC(),
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, int, error) {
	var conditions []string
	var args []any

	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		conditions = append(conditions, fmt.Sprintf("a.actor_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", len(args)))
	}
	if filter.TargetType != "" {
		args = append(args, filter.TargetType)
		conditions = append(conditions, fmt.Sprintf("a.target_type = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs a`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.actor_id, COALESCE(u.email, ''), a.action, a.target_type, a.target_id,
			a.ip_address, a.user_agent, a.metadata, a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.actor_id%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*domain.AuditLog
	for rows.Next() {
		entry := &domain.AuditLog{}
		var actorID uuid.NullUUID
		var metadata []byte

		err := rows.Scan(
			&entry.ID,
			&actorID,
			&entry.ActorEmail,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&entry.IPAddress,
			&entry.UserAgent,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		if actorID.Valid {
			id := actorID.UUID
			entry.ActorID = &id
		}
		entry.Metadata = map[string]any{}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, 0, fmt.Errorf("decode audit metadata: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
