package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

const userColumns = `
	u.id, u.email, u.name, u.password_hash, u.email_verified_at, u.is_active, u.is_superuser,
	u.role_id, u.mfa_enabled, u.totp_secret, u.session_version, u.last_login_at, u.created_at, u.updated_at,
	r.name, r.description, r.permissions`

const userFrom = `
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type userRepository struct {
	db DBExecutor
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		emailVerifiedAt sql.NullTime
		lastLoginAt     sql.NullTime
		updatedAt       sql.NullTime
		roleID          sql.NullInt64
		roleName        sql.NullString
		roleDescription sql.NullString
		rolePermissions []byte
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&emailVerifiedAt,
		&user.IsActive,
		&user.IsSuperuser,
		&roleID,
		&user.MFAEnabled,
		&user.TOTPSecret,
		&user.SessionVersion,
		&lastLoginAt,
		&user.CreatedAt,
		&updatedAt,
		&roleName,
		&roleDescription,
		&rolePermissions,
	)
	if err != nil {
		return nil, err
	}

	user.EmailVerifiedAt = nullTimePtr(emailVerifiedAt)
	user.LastLoginAt = nullTimePtr(lastLoginAt)
	user.UpdatedAt = nullTimePtr(updatedAt)

	if roleID.Valid {
		id := roleID.Int64
		user.RoleID = &id
		permissions, err := decodePermissions(rolePermissions)
		if err != nil {
			return nil, err
		}
		user.Role = &domain.Role{
			ID:          id,
			Name:        roleName.String,
			Description: roleDescription.String,
			Permissions: permissions,
		}
	}

	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.SessionVersion == 0 {
		user.SessionVersion = 1
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, email_verified_at, is_active, is_superuser,
			role_id, mfa_enabled, totp_secret, session_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.EmailVerifiedAt,
		user.IsActive,
		user.IsSuperuser,
		user.RoleID,
		user.MFAEnabled,
		user.TOTPSecret,
		user.SessionVersion,
		time.Now().UTC(),
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrEmailTaken
		}
		return err
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE u.id = $1`

	user, err := scanUser(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("user")
		}
		return nil, err
	}

	tags, err := r.tagsForUsers(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	user.Tags = tags[user.ID]

	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE LOWER(u.email) = LOWER($1)`

	user, err := scanUser(executor(ctx, r.db).QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("user")
		}
		return nil, err
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, is_active = $4, is_superuser = $5, role_id = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt sql.NullTime
	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.IsActive,
		user.IsSuperuser,
		user.RoleID,
		time.Now().UTC(),
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("user")
		}
		if isUniqueViolation(err, "") {
			return domain.ErrEmailTaken
		}
		return err
	}

	user.UpdatedAt = nullTimePtr(updatedAt)
	return nil
}

// UpdatePassword меняет хэш и увеличивает session_version, чтобы завершить старые сессии
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, session_version = session_version + 1, updated_at = $3
		WHERE id = $1
	`
	return r.execAffectingUser(ctx, query, id, passwordHash, time.Now().UTC())
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	var verifiedAt *time.Time
	if verified {
		now := time.Now().UTC()
		verifiedAt = &now
	}

	query := `
		UPDATE users
		SET email_verified_at = $2, updated_at = $3
		WHERE id = $1
	`
	return r.execAffectingUser(ctx, query, id, verifiedAt, time.Now().UTC())
}

func (r *userRepository) SetMFA(ctx context.Context, id uuid.UUID, enabled bool, secret string) error {
	query := `
		UPDATE users
		SET mfa_enabled = $2, totp_secret = $3, totp_last_step = 0, updated_at = $4
		WHERE id = $1
	`
	return r.execAffectingUser(ctx, query, id, enabled, secret, time.Now().UTC())
}

func (r *userRepository) UseTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error) {
	query := `UPDATE users SET totp_last_step = $2 WHERE id = $1 AND totp_last_step < $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, step)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *userRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`
	return r.execAffectingUser(ctx, query, id, time.Now().UTC())
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execAffectingUser(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *userRepository) execAffectingUser(ctx context.Context, query string, args ...any) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectAffected(result, "user")
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error) {
	search := ""
	if s := strings.TrimSpace(filter.Search); s != "" {
		search = "%" + s + "%"
	}
	where := ` WHERE ($1 = '' OR u.email ILIKE $1 OR u.name ILIKE $1)`

	var total int
	err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + userFrom + where + `
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, search, filter.Page.Limit(), filter.Page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*domain.User
	var ids []uuid.UUID
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
		ids = append(ids, user.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	tags, err := r.tagsForUsers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, user := range users {
		user.Tags = tags[user.ID]
	}

	return users, total, nil
}

// SetTags заменяет набор тегов пользователя
func (r *userRepository) SetTags(ctx context.Context, id uuid.UUID, tagIDs []int64) error {
	exec := executor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM user_tags WHERE user_id = $1`, id); err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO user_tags (user_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, tagID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *userRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE email_verified_at IS NOT NULL),
			(SELECT COUNT(*) FROM users WHERE mfa_enabled),
			(SELECT COUNT(*) FROM teams)
	`

	stats := &domain.UserStats{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&stats.Users,
		&stats.VerifiedUsers,
		&stats.MFAUsers,
		&stats.Teams,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *userRepository) tagsForUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	result := make(map[uuid.UUID][]domain.Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT ut.user_id, t.id, t.name, t.slug, t.color, t.created_at
		FROM user_tags ut
		JOIN tags t ON t.id = ut.tag_id
		WHERE ut.user_id IN (%s)
		ORDER BY t.name
	`, placeholders(1, len(ids)))

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&userID, &tag.ID, &tag.Name, &tag.Slug, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		result[userID] = append(result[userID], tag)
	}

	return result, rows.Err()
}

// placeholders возвращает "$start, $start+1, ..." для n аргументов
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func decodePermissions(raw []byte) ([]domain.Permission, error) {
	if len(raw) == 0 {
		return []domain.Permission{}, nil
	}
	var permissions []domain.Permission
	if err := json.Unmarshal(raw, &permissions); err != nil {
		return nil, fmt.Errorf("decode role permissions: %w", err)
	}
	return permissions, nil
}
