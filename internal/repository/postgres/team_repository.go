package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

const teamColumns = `
	t.id, t.name, t.slug, t.description, t.created_by, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM team_members c WHERE c.team_id = t.id)`

type teamRepository struct {
	db DBExecutor
}

func NewTeamRepository(db *sql.DB) *teamRepository {
	return &teamRepository{db: db}
}

func scanTeam(row rowScanner, extra ...any) (*domain.Team, error) {
	team := &domain.Team{}
	var (
		createdBy uuid.NullUUID
		updatedAt sql.NullTime
	)

	dest := []any{
		&team.ID,
		&team.Name,
		&team.Slug,
		&team.Description,
		&createdBy,
		&team.CreatedAt,
		&updatedAt,
		&team.MemberCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if createdBy.Valid {
		team.CreatedBy = &createdBy.UUID
	}
	team.UpdatedAt = nullTimePtr(updatedAt)
	return team, nil
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (name, slug, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		team.Name,
		team.Slug,
		team.Description,
		team.CreatedBy,
		time.Now().UTC(),
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "teams_slug_key") {
			return domain.ErrTeamSlugTaken
		}
		return err
	}

	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`

	team, err := scanTeam(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("team")
		}
		return nil, err
	}

	return team, nil
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt sql.NullTime
	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		team.ID,
		team.Name,
		team.Slug,
		team.Description,
		time.Now().UTC(),
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("team")
		}
		if isUniqueViolation(err, "teams_slug_key") {
			return domain.ErrTeamSlugTaken
		}
		return err
	}

	team.UpdatedAt = nullTimePtr(updatedAt)
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, "team")
}

func (r *teamRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TeamMembership, error) {
	query := `SELECT ` + teamColumns + `, tm.role
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1
		ORDER BY t.name`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.TeamMembership
	for rows.Next() {
		var role string
		team, err := scanTeam(rows, &role)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, &domain.TeamMembership{
			Team: *team,
			Role: domain.TeamRole(role),
		})
	}

	return memberships, rows.Err()
}

func (r *teamRepository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		member.TeamID,
		member.UserID,
		string(member.Role),
		time.Now().UTC(),
	).Scan(&member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrAlreadyMember
		}
		return err
	}

	return nil
}

const memberSelect = `
	SELECT tm.team_id, tm.user_id, u.email, u.name, tm.role, tm.joined_at
	FROM team_members tm
	JOIN users u ON u.id = tm.user_id`

func scanMember(row rowScanner) (*domain.TeamMember, error) {
	member := &domain.TeamMember{}
	var role string
	if err := row.Scan(&member.TeamID, &member.UserID, &member.Email, &member.Name, &role, &member.JoinedAt); err != nil {
		return nil, err
	}
	member.Role = domain.TeamRole(role)
	return member, nil
}

func (r *teamRepository) GetMember(ctx context.Context, teamID int64, userID uuid.UUID) (*domain.TeamMember, error) {
	query := memberSelect + ` WHERE tm.team_id = $1 AND tm.user_id = $2`

	member, err := scanMember(executor(ctx, r.db).QueryRowContext(ctx, query, teamID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("team member")
		}
		return nil, err
	}

	return member, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID int64) ([]*domain.TeamMember, error) {
	query := memberSelect + `
		WHERE tm.team_id = $1
		ORDER BY tm.joined_at, u.email`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.TeamMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *teamRepository) UpdateMemberRole(ctx context.Context, teamID int64, userID uuid.UUID, role domain.TeamRole) error {
	query := `UPDATE team_members SET role = $3 WHERE team_id = $1 AND user_id = $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, teamID, userID, string(role))
	if err != nil {
		return err
	}
	return expectAffected(result, "team member")
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID int64, userID uuid.UUID) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	return expectAffected(result, "team member")
}

func (r *teamRepository) CountOwners(ctx context.Context, teamID int64) (int, error) {
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND role = 'owner'`

	var count int
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *teamRepository) SoleOwnedWithMembers(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error) {
	query := `SELECT ` + teamColumns + `
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id AND tm.user_id = $1 AND tm.role = 'owner'
		WHERE (SELECT COUNT(*) FROM team_members o WHERE o.team_id = t.id AND o.role = 'owner') = 1
		  AND (SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) > 1
		ORDER BY t.name`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// DeleteSoleMemberTeams удаляет команды, в которых пользователь остался единственным участником
func (r *teamRepository) DeleteSoleMemberTeams(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM teams t
		WHERE EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = t.id AND tm.user_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM team_members o WHERE o.team_id = t.id AND o.user_id <> $1)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// expectAffected возвращает NOT_FOUND, если запрос не затронул ни одной строки
func expectAffected(result sql.Result, resource string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(resource)
	}
	return nil
}
