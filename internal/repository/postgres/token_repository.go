package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type emailTokenRepository struct {
	db DBExecutor
}

func NewEmailTokenRepository(db *sql.DB) *emailTokenRepository {
	return &emailTokenRepository{db: db}
}

func (r *emailTokenRepository) Create(ctx context.Context, token *domain.EmailToken) error {
	query := `
		INSERT INTO email_tokens (user_id, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		token.UserID,
		string(token.Purpose),
		token.TokenHash,
		token.ExpiresAt,
		time.Now().UTC(),
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *emailTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.EmailToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		FROM email_tokens
		WHERE token_hash = $1
	`

	token := &domain.EmailToken{}
	var purpose string
	var usedAt sql.NullTime

	err := executor(ctx, r.db).QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&purpose,
		&token.TokenHash,
		&token.ExpiresAt,
		&usedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	token.Purpose = domain.TokenPurpose(purpose)
	token.UsedAt = nullTimePtr(usedAt)
	return token, nil
}

// MarkUsed - повторное использование токена возвращает TOKEN_INVALID
func (r *emailTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	query := `UPDATE email_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`

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

func (r *emailTokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error {
	query := `DELETE FROM email_tokens WHERE user_id = $1 AND purpose = $2`
	_, err := executor(ctx, r.db).ExecContext(ctx, query, userID, string(purpose))
	return err
}

type backupCodeRepository struct {
	db DBExecutor
}

func NewBackupCodeRepository(db *sql.DB) *backupCodeRepository {
	return &backupCodeRepository{db: db}
}

// Replace удаляет старые коды пользователя и сохраняет новые хэши
func (r *backupCodeRepository) Replace(ctx context.Context, userID uuid.UUID, hashes []string) error {
	exec := executor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, hash := range hashes {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO backup_codes (user_id, code_hash, created_at)
			VALUES ($1, $2, $3)
		`, userID, hash, now)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *backupCodeRepository) Consume(ctx context.Context, userID uuid.UUID, hash string) (bool, error) {
	query := `
		UPDATE backup_codes
		SET used_at = $3
		WHERE user_id = $1 AND code_hash = $2 AND used_at IS NULL
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, userID, hash, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *backupCodeRepository) CountRemaining(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM backup_codes WHERE user_id = $1 AND used_at IS NULL`

	var count int
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *backupCodeRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID)
	return err
}
