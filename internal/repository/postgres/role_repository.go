package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type roleRepository struct {
	db DBExecutor
}

func NewRoleRepository(db *sql.DB) *roleRepository {
	return &roleRepository{db: db}
}

func scanRole(row rowScanner) (*domain.Role, error) {
	role := &domain.Role{}
	var permissions []byte
	var updatedAt sql.NullTime

	if err := row.Scan(&role.ID, &role.Name, &role.Description, &permissions, &role.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	perms, err := decodePermissions(permissions)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	role.UpdatedAt = nullTimePtr(updatedAt)
	return role, nil
}

func encodePermissions(perms []domain.Permission) ([]byte, error) {
	if perms == nil {
		perms = []domain.Permission{}
	}
	return json.Marshal(perms)
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	permissions, err := encodePermissions(role.Permissions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO roles (name, description, permissions, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		role.Name,
		role.Description,
		permissions,
		time.Now().UTC(),
	).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrRoleExists
		}
		return err
	}

	return nil
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	permissions, err := encodePermissions(role.Permissions)
	if err != nil {
		return err
	}

	query := `
		UPDATE roles
		SET name = $2, description = $3, permissions = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt sql.NullTime
	err = executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		role.ID,
		role.Name,
		role.Description,
		permissions,
		time.Now().UTC(),
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("role")
		}
		if isUniqueViolation(err, "") {
			return domain.ErrRoleExists
		}
		return err
	}

	role.UpdatedAt = nullTimePtr(updatedAt)
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, "role")
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	query := `
		SELECT id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE id = $1
	`

	role, err := scanRole(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("role")
		}
		return nil, err
	}

	return role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	query := `
		SELECT id, name, description, permissions, created_at, updated_at
		FROM roles
		ORDER BY name
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}
