package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type oauthAccountRepository struct {
	db DBExecutor
}

func NewOAuthAccountRepository(db *sql.DB) *oauthAccountRepository {
	return &oauthAccountRepository{db: db}
}

func (r *oauthAccountRepository) Create(ctx context.Context, account *domain.OAuthAccount) error {
	query := `
		INSERT INTO oauth_accounts (user_id, provider, provider_user_id, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		account.UserID,
		account.Provider,
		account.ProviderUserID,
		account.Email,
		time.Now().UTC(),
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrOAuthLinked
		}
		return err
	}

	return nil
}

func (r *oauthAccountRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, email, created_at
		FROM oauth_accounts
		WHERE provider = $1 AND provider_user_id = $2
	`

	account := &domain.OAuthAccount{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, provider, providerUserID).Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ProviderUserID,
		&account.Email,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("oauth account")
		}
		return nil, err
	}

	return account, nil
}

func (r *oauthAccountRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.OAuthAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, email, created_at
		FROM oauth_accounts
		WHERE user_id = $1
		ORDER BY provider
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.OAuthAccount
	for rows.Next() {
		account := &domain.OAuthAccount{}
		err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.Provider,
			&account.ProviderUserID,
			&account.Email,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *oauthAccountRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `DELETE FROM oauth_accounts WHERE user_id = $1 AND provider = $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, userID, provider)
	if err != nil {
		return err
	}
	return expectAffected(result, "oauth account")
}
