//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/db"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/repository/postgres"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/bagdasarian/teamhub/internal/service"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *sql.DB {
	ctx := context.Background()

	// Создаём контейнер Postgres через testcontainers
	postgresContainer, err := tcpostgres.Run(ctx, "postgres:17.7",
		tcpostgres.WithDatabase("test_db"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	require.NoError(t, database.Ping())

	// Накатываем встроенные миграции тем же кодом, что и в проде
	_, err = db.Migrate(ctx, database)
	require.NoError(t, err, "не удалось применить миграции")

	t.Cleanup(func() {
		database.Close()
		require.NoError(t, postgresContainer.Terminate(ctx))
	})

	return database
}

// sentMail запоминает последние токены из писем вместо отправки
type sentMail struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
	invitation   map[string]string
}

func newSentMail() *sentMail {
	return &sentMail{
		verification: map[string]string{},
		reset:        map[string]string{},
		invitation:   map[string]string{},
	}
}

func (m *sentMail) SendVerification(_ context.Context, user *domain.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verification[user.Email] = token
	return nil
}

func (m *sentMail) SendPasswordReset(_ context.Context, user *domain.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset[user.Email] = token
	return nil
}

func (m *sentMail) SendInvitation(_ context.Context, inv *domain.TeamInvitation, _ string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitation[inv.Email] = token
	return nil
}

func (m *sentMail) SendPasswordChanged(context.Context, *domain.User) error { return nil }

func (m *sentMail) SendMFAEnabled(context.Context, *domain.User) error { return nil }

func (m *sentMail) token(box map[string]string, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return box[email]
}

type testEnv struct {
	db          *sql.DB
	mail        *sentMail
	users       repository.UserRepository
	auth        service.AuthService
	mfa         service.MFAService
	profile     service.ProfileService
	teams       service.TeamService
	invitations service.InvitationService
	admin       service.AdminService
	audit       service.AuditService
}

func setupEnv(t *testing.T) *testEnv {
	database := setupTestDB(t)
	log := logger.Nop()
	tokens := config.TokenConfig{
		VerificationTTL: time.Hour,
		ResetTTL:        time.Hour,
		InvitationTTL:   24 * time.Hour,
	}

	userRepo := postgres.NewUserRepository(database)
	teamRepo := postgres.NewTeamRepository(database)
	tokenRepo := postgres.NewEmailTokenRepository(database)
	backupRepo := postgres.NewBackupCodeRepository(database)
	oauthRepo := postgres.NewOAuthAccountRepository(database)
	tx := postgres.NewTransactor(database)

	mail := newSentMail()
	hasher := security.NewPasswordHasher(security.DefaultParams)
	audit := service.NewAuditService(postgres.NewAuditRepository(database), log)

	return &testEnv{
		db:          database,
		mail:        mail,
		users:       userRepo,
		auth:        service.NewAuthService(userRepo, tokenRepo, backupRepo, tx, hasher, mail, audit, tokens, log),
		mfa:         service.NewMFAService(userRepo, backupRepo, tx, hasher, mail, audit, "Teamhub", log),
		profile:     service.NewProfileService(userRepo, teamRepo, oauthRepo, tokenRepo, tx, hasher, mail, audit, tokens, log),
		teams:       service.NewTeamService(teamRepo, tx, audit),
		invitations: service.NewInvitationService(postgres.NewInvitationRepository(database), teamRepo, userRepo, tx, mail, audit, tokens, log),
		admin:       service.NewAdminService(userRepo, postgres.NewRoleRepository(database), postgres.NewTagRepository(database), teamRepo, tx, audit),
		audit:       audit,
	}
}

// registerVerified регистрирует пользователя и подтверждает email по токену из письма
func (e *testEnv) registerVerified(t *testing.T, name, email string) *domain.User {
	ctx := context.Background()

	_, err := e.auth.Register(ctx, service.RegisterInput{Name: name, Email: email, Password: "long-password"})
	require.NoError(t, err)

	user, err := e.auth.VerifyEmail(ctx, e.mail.token(e.mail.verification, email))
	require.NoError(t, err)

	return user
}
