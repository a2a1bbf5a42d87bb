package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type tagRepository struct {
	db DBExecutor
}

func NewTagRepository(db *sql.DB) *tagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	query := `
		INSERT INTO tags (name, slug, color, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := executor(ctx, r.db).QueryRowContext(ctx, query, tag.Name, tag.Slug, tag.Color, time.Now().UTC()).
		Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrTagExists
		}
		return err
	}

	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, "tag")
}

func (r *tagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	return r.query(ctx, `SELECT id, name, slug, color, created_at FROM tags ORDER BY name`)
}

func (r *tagRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name, slug, color, created_at
		FROM tags
		WHERE id IN (%s)
		ORDER BY name`, placeholders(1, len(ids)))

	return r.query(ctx, query, args...)
}

func (r *tagRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		tag := &domain.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}
