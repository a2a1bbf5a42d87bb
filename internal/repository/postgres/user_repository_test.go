package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "email", "name", "password_hash", "email_verified_at", "is_active", "is_superuser",
	"role_id", "mfa_enabled", "totp_secret", "session_version", "last_login_at", "created_at", "updated_at",
	"role_name", "role_description", "role_permissions",
}

// setupUserRepo создает мок БД и репозиторий для User
func setupUserRepo(t *testing.T) (*userRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("успешное создание", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		now := time.Now()

		user := &domain.User{Email: "alice@example.com", Name: "Alice", PasswordHash: "hash", IsActive: true}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "alice@example.com", "Alice", "hash", nil, true, false, nil, false, "", 1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		err := repo.Create(context.Background(), user)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID, "ID должен быть сгенерирован")
		assert.Equal(t, 1, user.SessionVersion)
		assert.Equal(t, now, user.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: email уже занят", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})

		err := repo.Create(context.Background(), &domain.User{Email: "alice@example.com"})

		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("пользователь с ролью и тегами", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
				id.String(), "alice@example.com", "Alice", "hash", now, true, false,
				int64(2), true, "SECRET", 3, nil, now, nil,
				"support", "Support staff", []byte(`["users:read","audit:read"]`),
			))

		mock.ExpectQuery("SELECT ut.user_id").
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "id", "name", "slug", "color", "created_at"}).
				AddRow(id.String(), int64(7), "VIP", "vip", "#ff0000", now))

		user, err := repo.GetByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.True(t, user.IsVerified())
		assert.True(t, user.MFAEnabled)
		assert.Equal(t, 3, user.SessionVersion)
		require.NotNil(t, user.Role)
		assert.Equal(t, int64(2), *user.RoleID)
		assert.Equal(t, "support", user.Role.Name)
		assert.True(t, user.Can(domain.PermAuditRead))
		assert.False(t, user.Can(domain.PermUsersWrite))
		require.Len(t, user.Tags, 1)
		assert.Equal(t, "vip", user.Tags[0].Slug)
		assert.Nil(t, user.LastLoginAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs(id.String()).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(context.Background(), id)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("пользователь без роли", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
				id.String(), "Alice@Example.com", "Alice", "", nil, true, false,
				nil, false, "", 1, nil, now, nil,
				nil, nil, nil,
			))

		user, err := repo.GetByEmail(context.Background(), " alice@example.com ")

		require.NoError(t, err)
		assert.Nil(t, user.Role)
		assert.Nil(t, user.RoleID)
		assert.False(t, user.HasPassword())
		assert.False(t, user.IsVerified())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM users u").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	t.Run("увеличивает версию сессии", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()

		mock.ExpectExec("UPDATE users\\s+SET password_hash = \\$2, session_version = session_version \\+ 1").
			WithArgs(id.String(), "new-hash", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePassword(context.Background(), id, "new-hash")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(context.Background(), uuid.New(), "new-hash")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_SetMFA(t *testing.T) {
	repo, mock := setupUserRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE users\\s+SET mfa_enabled = \\$2, totp_secret = \\$3, totp_last_step = 0").
		WithArgs(id.String(), true, "SECRET", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetMFA(context.Background(), id, true, "SECRET"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UseTOTPStep(t *testing.T) {
	t.Run("новый шаг принят", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()

		mock.ExpectExec("UPDATE users SET totp_last_step = \\$2 WHERE id = \\$1 AND totp_last_step < \\$2").
			WithArgs(id.String(), int64(58000001)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UseTOTPStep(context.Background(), id, 58000001)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("повтор шага отклонён", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users SET totp_last_step").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UseTOTPStep(context.Background(), uuid.New(), 58000001)

		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepository_SetEmailVerified(t *testing.T) {
	repo, mock := setupUserRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE users").
		WithArgs(id.String(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetEmailVerified(context.Background(), id, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	t.Run("поиск с пагинацией", func(t *testing.T) {
		repo, mock := setupUserRepo(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("%ali%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("%ali%", 20, 20).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
				id.String(), "alice@example.com", "Alice", "hash", now, true, false,
				nil, false, "", 1, now, now, now,
				nil, nil, nil,
			))

		mock.ExpectQuery("SELECT ut.user_id").
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "id", "name", "slug", "color", "created_at"}))

		users, total, err := repo.List(context.Background(), domain.UserFilter{
			Search: " ali ",
			Page:   domain.Page{Number: 2},
		})

		require.NoError(t, err)
		assert.Equal(t, 21, total)
		require.Len(t, users, 1)
		assert.Empty(t, users[0].Tags)
		assert.NotNil(t, users[0].LastLoginAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("пустая страница не запрашивает теги", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("", 20, 0).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		users, total, err := repo.List(context.Background(), domain.UserFilter{})

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_SetTags(t *testing.T) {
	repo, mock := setupUserRepo(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM user_tags").
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO user_tags").
		WithArgs(id.String(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_tags").
		WithArgs(id.String(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetTags(context.Background(), id, []int64{1, 5})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Stats(t *testing.T) {
	repo, mock := setupUserRepo(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"users", "verified", "mfa", "teams"}).AddRow(10, 7, 2, 3))

	stats, err := repo.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &domain.UserStats{Users: 10, VerifiedUsers: 7, MFAUsers: 2, Teams: 3}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
