package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

const invitationSelect = `
	SELECT i.id, i.team_id, t.name, i.email, i.role, i.token_hash, i.invited_by,
		i.expires_at, i.accepted_at, i.created_at
	FROM team_invitations i
	JOIN teams t ON t.id = i.team_id`

type invitationRepository struct {
	db DBExecutor
}

func NewInvitationRepository(db *sql.DB) *invitationRepository {
	return &invitationRepository{db: db}
}

func scanInvitation(row rowScanner) (*domain.TeamInvitation, error) {
	inv := &domain.TeamInvitation{}
	var (
		role       string
		invitedBy  uuid.NullUUID
		acceptedAt sql.NullTime
	)

	err := row.Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.TeamName,
		&inv.Email,
		&role,
		&inv.TokenHash,
		&invitedBy,
		&inv.ExpiresAt,
		&acceptedAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Role = domain.TeamRole(role)
	if invitedBy.Valid {
		id := invitedBy.UUID
		inv.InvitedBy = &id
	}
	inv.AcceptedAt = nullTimePtr(acceptedAt)
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.TeamInvitation) error {
	query := `
		INSERT INTO team_invitations (team_id, email, role, token_hash, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	return executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		inv.TeamID,
		inv.Email,
		string(inv.Role),
		inv.TokenHash,
		inv.InvitedBy,
		inv.ExpiresAt,
		time.Now().UTC(),
	).Scan(&inv.ID, &inv.CreatedAt)
}

func (r *invitationRepository) getOne(ctx context.Context, where string, args ...any) (*domain.TeamInvitation, error) {
	inv, err := scanInvitation(executor(ctx, r.db).QueryRowContext(ctx, invitationSelect+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("invitation")
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id int64) (*domain.TeamInvitation, error) {
	return r.getOne(ctx, ` WHERE i.id = $1`, id)
}

func (r *invitationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.TeamInvitation, error) {
	return r.getOne(ctx, ` WHERE i.token_hash = $1`, tokenHash)
}

// FindPending ищет непринятое и непросроченное приглашение на email
func (r *invitationRepository) FindPending(ctx context.Context, teamID int64, email string) (*domain.TeamInvitation, error) {
	return r.getOne(ctx, `
		WHERE i.team_id = $1 AND LOWER(i.email) = LOWER($2)
		  AND i.accepted_at IS NULL AND i.expires_at > $3
		ORDER BY i.created_at DESC
		LIMIT 1`, teamID, email, time.Now().UTC())
}

func (r *invitationRepository) ListPendingForTeam(ctx context.Context, teamID int64) ([]*domain.TeamInvitation, error) {
	query := invitationSelect + `
		WHERE i.team_id = $1 AND i.accepted_at IS NULL AND i.expires_at > $2
		ORDER BY i.created_at DESC`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, teamID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*domain.TeamInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

func (r *invitationRepository) MarkAccepted(ctx context.Context, id int64) error {
	query := `
		UPDATE team_invitations
		SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

func (r *invitationRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM team_invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, "invitation")
}
