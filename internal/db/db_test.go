package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	migs, err := loadMigrations()

	require.NoError(t, err)
	require.Contains(t, migs, 1)
	assert.Equal(t, "init", migs[1].name)
	assert.Equal(t, "migrations/000001_init.up.sql", migs[1].upFile)
	assert.Equal(t, "migrations/000001_init.down.sql", migs[1].downFile)
	require.Contains(t, migs, 2)
	assert.Equal(t, "team_creator_totp_step", migs[2].name)
	assert.NotEmpty(t, migs[2].downFile)
}

func TestMigrate(t *testing.T) {
	t.Run("применяет новую миграцию", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec("ALTER TABLE teams DROP CONSTRAINT IF EXISTS teams_owner_id_fkey").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		applied, err := Migrate(context.Background(), db)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("пропускает уже применённые миграции", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))

		applied, err := Migrate(context.Background(), db)

		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRollbackLast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT version FROM schema_migrations ORDER BY version DESC").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE users DROP COLUMN IF EXISTS totp_last_step").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schema_migrations").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version, err := RollbackLast(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
