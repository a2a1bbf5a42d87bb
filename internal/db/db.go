package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationFileRe = regexp.MustCompile(`^([0-9]{6})_(.+)\.(up|down)\.sql$`)

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

func NewPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate применяет все ещё не применённые миграции по возрастанию версии.
// Возвращает список применённых версий.
func Migrate(ctx context.Context, db *sql.DB) ([]int, error) {
	migs, err := loadMigrations()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	var done []int
	for _, v := range versions {
		if applied[v] {
			continue
		}
		m := migs[v]
		if m.upFile == "" {
			return done, fmt.Errorf("missing up migration for version %06d", v)
		}
		if err := runInTx(ctx, db, m.upFile, `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
			return done, fmt.Errorf("migration %06d_%s failed: %w", v, m.name, err)
		}
		done = append(done, v)
	}

	return done, nil
}

// RollbackLast откатывает последнюю применённую миграцию
func RollbackLast(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	migs, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	m, ok := migs[version]
	if !ok || m.downFile == "" {
		return 0, fmt.Errorf("no down migration found for version %06d", version)
	}

	if err := runInTx(ctx, db, m.downFile, `DELETE FROM schema_migrations WHERE version = $1`, version); err != nil {
		return 0, err
	}
	return version, nil
}

func runInTx(ctx context.Context, db *sql.DB, file, bookkeeping string, version int) error {
	text, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(text)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return err
	}

	return tx.Commit()
}

func loadMigrations() (map[int]migration, error) {
	entries, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	migs := make(map[int]migration)
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		m := migrationFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		item := migs[version]
		item.version = version
		item.name = m[2]
		if m[3] == "up" {
			item.upFile = "migrations/" + de.Name()
		} else {
			item.downFile = "migrations/" + de.Name()
		}
		migs[version] = item
	}

	return migs, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
