package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/db"
	"github.com/bagdasarian/teamhub/internal/handler"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/mail"
	"github.com/bagdasarian/teamhub/internal/oauth"
	"github.com/bagdasarian/teamhub/internal/repository/postgres"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/bagdasarian/teamhub/internal/session"
)

// app собирает зависимости, общие для всех команд
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *sql.DB
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.App.Env)
	if cfg.IsProduction() && !cfg.Session.Secure {
		log.Warn("session cookie is not marked secure in production")
	}

	database, err := db.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("connected to database", "config", cfg.String())

	return &app{cfg: cfg, log: log, db: database}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Error("failed to close database", "error", err)
	}
	_ = a.log.Sync()
}

func (a *app) migrate(ctx context.Context) error {
	applied, err := db.Migrate(ctx, a.db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) == 0 {
		a.log.Info("schema is up to date")
		return nil
	}
	a.log.Info("migrations applied", "versions", applied)
	return nil
}

type services struct {
	auth        service.AuthService
	mfa         service.MFAService
	profile     service.ProfileService
	teams       service.TeamService
	invitations service.InvitationService
	admin       service.AdminService
	oauth       service.OAuthService
}

func (a *app) services() (*services, error) {
	userRepo := postgres.NewUserRepository(a.db)
	roleRepo := postgres.NewRoleRepository(a.db)
	tagRepo := postgres.NewTagRepository(a.db)
	teamRepo := postgres.NewTeamRepository(a.db)
	invitationRepo := postgres.NewInvitationRepository(a.db)
	oauthRepo := postgres.NewOAuthAccountRepository(a.db)
	tokenRepo := postgres.NewEmailTokenRepository(a.db)
	backupRepo := postgres.NewBackupCodeRepository(a.db)
	auditRepo := postgres.NewAuditRepository(a.db)
	tx := postgres.NewTransactor(a.db)

	notifier, err := mail.NewNotifier(mail.NewMailer(a.cfg.Mail, a.log), a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	hasher := security.NewPasswordHasher(security.DefaultParams)
	audit := service.NewAuditService(auditRepo, a.log)

	return &services{
		auth:        service.NewAuthService(userRepo, tokenRepo, backupRepo, tx, hasher, notifier, audit, a.cfg.Tokens, a.log),
		mfa:         service.NewMFAService(userRepo, backupRepo, tx, hasher, notifier, audit, a.cfg.App.TOTPIssuer, a.log),
		profile:     service.NewProfileService(userRepo, teamRepo, oauthRepo, tokenRepo, tx, hasher, notifier, audit, a.cfg.Tokens, a.log),
		teams:       service.NewTeamService(teamRepo, tx, audit),
		invitations: service.NewInvitationService(invitationRepo, teamRepo, userRepo, tx, notifier, audit, a.cfg.Tokens, a.log),
		admin:       service.NewAdminService(userRepo, roleRepo, tagRepo, teamRepo, tx, audit),
		oauth:       service.NewOAuthService(userRepo, oauthRepo, tx, audit, a.log),
	}, nil
}

func (a *app) handler() (*handler.Handler, error) {
	svc, err := a.services()
	if err != nil {
		return nil, err
	}

	return handler.NewHandler(a.cfg, handler.Deps{
		Auth:        svc.auth,
		MFA:         svc.mfa,
		Profile:     svc.profile,
		Teams:       svc.teams,
		Invitations: svc.invitations,
		Admin:       svc.admin,
		OAuth:       svc.oauth,
		Providers:   oauth.NewRegistryFromConfig(a.cfg.OAuth, a.cfg.App.BaseURL),
		Sessions:    session.NewManager(a.cfg.Session, a.cfg.App.SecretKey),
		DB:          a.db,
	}, a.log)
}
