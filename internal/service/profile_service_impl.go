package service

import (
	"context"
	"strings"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/google/uuid"
)

type profileService struct {
	userRepo  repository.UserRepository
	teamRepo  repository.TeamRepository
	oauthRepo repository.OAuthAccountRepository
	tokenRepo repository.EmailTokenRepository
	tx        repository.Transactor
	hasher    *security.PasswordHasher
	notifier  Notifier
	audit     AuditService
	tokens    config.TokenConfig
	log       *logger.Logger
}

// NewProfileService создает новый экземпляр ProfileService
func NewProfileService(
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	oauthRepo repository.OAuthAccountRepository,
	tokenRepo repository.EmailTokenRepository,
	tx repository.Transactor,
	hasher *security.PasswordHasher,
	notifier Notifier,
	audit AuditService,
	tokens config.TokenConfig,
	log *logger.Logger,
) ProfileService {
	return &profileService{
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		oauthRepo: oauthRepo,
		tokenRepo: tokenRepo,
		tx:        tx,
		hasher:    hasher,
		notifier:  notifier,
		audit:     audit,
		tokens:    tokens,
		log:       log,
	}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// Update меняет имя и email; новый email требует повторного подтверждения
func (s *profileService) Update(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = domain.NormalizeEmail(input.Email)

	v := domain.ValidationErrors{}
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, maxNameLength)
	v.Email("email", input.Email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	emailChanged := input.Email != domain.NormalizeEmail(user.Email)

	updated := *user
	updated.Name = input.Name
	updated.Email = input.Email

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Update(ctx, &updated); err != nil {
			return err
		}
		if emailChanged {
			return s.userRepo.SetEmailVerified(ctx, updated.ID, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if emailChanged {
		updated.EmailVerifiedAt = nil
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      &updated,
		Action:     domain.AuditProfileUpdated,
		TargetType: "user",
		TargetID:   updated.ID.String(),
		Metadata:   map[string]any{"email_changed": emailChanged},
	})

	if emailChanged {
		token, err := issueEmailToken(ctx, s.tokenRepo, updated.ID, domain.PurposeVerifyEmail, s.tokens.VerificationTTL)
		if err != nil {
			return nil, err
		}
		if err := s.notifier.SendVerification(ctx, &updated, token); err != nil {
			s.log.WithContext(ctx).Error("failed to send verification email", "user_id", updated.ID.String(), "error", err)
		}
	}

	return &updated, nil
}

// ChangePassword: аккаунт без пароля (OAuth) может задать первый пароль без текущего
func (s *profileService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) (*domain.User, error) {
	if user.HasPassword() {
		ok, err := checkPassword(s.hasher, user, currentPassword)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewValidationError("current_password", "current password is incorrect")
		}
	}

	if err := validatePassword("password", newPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      updated,
		Action:     domain.AuditPasswordChanged,
		TargetType: "user",
		TargetID:   updated.ID.String(),
	})

	if err := s.notifier.SendPasswordChanged(ctx, updated); err != nil {
		s.log.WithContext(ctx).Error("failed to send password changed email", "user_id", updated.ID.String(), "error", err)
	}

	return updated, nil
}

// DeleteAccount удаляет пользователя, если он не последний владелец команды с участниками
func (s *profileService) DeleteAccount(ctx context.Context, user *domain.User, password string) error {
	if user.HasPassword() {
		ok, err := checkPassword(s.hasher, user, password)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError("password", "password is incorrect")
		}
	}

	if err := ensureNotLastOwner(ctx, s.teamRepo, user.ID); err != nil {
		return err
	}

	// actor_id должен ссылаться на существующего пользователя
	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditAccountDeleted,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"email": user.Email},
	})

	return removeUser(ctx, s.tx, s.userRepo, s.teamRepo, user.ID)
}

func ensureNotLastOwner(ctx context.Context, teamRepo repository.TeamRepository, userID uuid.UUID) error {
	teams, err := teamRepo.SoleOwnedWithMembers(ctx, userID)
	if err != nil {
		return err
	}
	if len(teams) > 0 {
		return domain.ErrLastOwner
	}
	return nil
}

// removeUser удаляет пользователя и команды, где он остался единственным участником
func removeUser(ctx context.Context, tx repository.Transactor, userRepo repository.UserRepository, teamRepo repository.TeamRepository, userID uuid.UUID) error {
	return tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := teamRepo.DeleteSoleMemberTeams(ctx, userID); err != nil {
			return err
		}
		return userRepo.Delete(ctx, userID)
	})
}

func (s *profileService) ListOAuthAccounts(ctx context.Context, user *domain.User) ([]*domain.OAuthAccount, error) {
	accounts, err := s.oauthRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*domain.OAuthAccount{}
	}
	return accounts, nil
}

// UnlinkOAuth отвязывает провайдера, если у пользователя остаётся другой способ входа
func (s *profileService) UnlinkOAuth(ctx context.Context, user *domain.User, provider string) error {
	accounts, err := s.oauthRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	found := false
	for _, account := range accounts {
		if account.Provider == provider {
			found = true
			break
		}
	}
	if !found {
		return domain.NewNotFoundError("oauth account")
	}
	if !user.HasPassword() && len(accounts) == 1 {
		return domain.ErrLastLoginMethod
	}

	if err := s.oauthRepo.Delete(ctx, user.ID, provider); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditOAuthUnlinked,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"provider": provider},
	})

	return nil
}
