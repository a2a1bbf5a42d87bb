package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
)

type oauthService struct {
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthAccountRepository
	tx        repository.Transactor
	audit     AuditService
	log       *logger.Logger
}

// NewOAuthService создает новый экземпляр OAuthService
func NewOAuthService(
	userRepo repository.UserRepository,
	oauthRepo repository.OAuthAccountRepository,
	tx repository.Transactor,
	audit AuditService,
	log *logger.Logger,
) OAuthService {
	return &oauthService{
		userRepo:  userRepo,
		oauthRepo: oauthRepo,
		tx:        tx,
		audit:     audit,
		log:       log,
	}
}

// Login: сначала привязка к текущей сессии, затем уже связанный аккаунт,
// затем аккаунт с тем же подтверждённым email, иначе новый пользователь без пароля
func (s *oauthService) Login(ctx context.Context, profile *domain.OAuthProfile, current *domain.User) (*OAuthLoginResult, error) {
	if profile == nil || profile.Provider == "" || profile.ProviderUserID == "" {
		return nil, domain.NewBadRequestError("provider returned an incomplete profile")
	}
	profile.Email = domain.NormalizeEmail(profile.Email)

	account, err := s.oauthRepo.GetByProvider(ctx, profile.Provider, profile.ProviderUserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if current != nil {
		if account != nil {
			if account.UserID != current.ID {
				return nil, domain.ErrOAuthLinked
			}
			return &OAuthLoginResult{User: current}, nil
		}
		if err := s.link(ctx, current, profile); err != nil {
			return nil, err
		}
		return &OAuthLoginResult{User: current, Linked: true}, nil
	}

	if account != nil {
		user, err := s.userRepo.GetByID(ctx, account.UserID)
		if err != nil {
			return nil, err
		}
		return s.finish(ctx, user, profile, &OAuthLoginResult{User: user})
	}

	if profile.Email == "" {
		return nil, domain.NewBadRequestError("provider did not return an email address")
	}

	user, err := s.userRepo.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		// без подтверждения провайдером чужой email не привязываем
		if !profile.EmailVerified {
			return nil, domain.ErrEmailTaken
		}
		if err := s.linkExisting(ctx, user, profile); err != nil {
			return nil, err
		}
		return s.finish(ctx, user, profile, &OAuthLoginResult{User: user, Linked: true})
	case errors.Is(err, domain.ErrNotFound):
		user, err := s.register(ctx, profile)
		if err != nil {
			return nil, err
		}
		return s.finish(ctx, user, profile, &OAuthLoginResult{User: user, Created: true})
	default:
		return nil, err
	}
}

func (s *oauthService) link(ctx context.Context, user *domain.User, profile *domain.OAuthProfile) error {
	err := s.oauthRepo.Create(ctx, &domain.OAuthAccount{
		UserID:         user.ID,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditOAuthLinked,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"provider": profile.Provider},
	})
	return nil
}

// linkExisting привязывает провайдера по email и заодно подтверждает этот email.
// У неподтверждённого аккаунта сбрасываются пароль, MFA и все сессии
func (s *oauthService) linkExisting(ctx context.Context, user *domain.User, profile *domain.OAuthProfile) error {
	if !user.IsActive {
		return domain.ErrAccountDisabled
	}

	unverified := !user.IsVerified()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.link(ctx, user, profile); err != nil {
			return err
		}
		if !unverified {
			return nil
		}
		if err := s.userRepo.UpdatePassword(ctx, user.ID, ""); err != nil {
			return err
		}
		if err := s.userRepo.SetMFA(ctx, user.ID, false, ""); err != nil {
			return err
		}
		return s.userRepo.SetEmailVerified(ctx, user.ID, true)
	})
	if err != nil {
		return err
	}

	if unverified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
		user.PasswordHash = ""
		user.SessionVersion++
		user.MFAEnabled = false
		user.TOTPSecret = ""

		s.log.WithContext(ctx).Info("unverified account claimed via oauth, credentials reset",
			"user_id", user.ID.String(), "provider", profile.Provider)
	}
	return nil
}

func (s *oauthService) register(ctx context.Context, profile *domain.OAuthProfile) (*domain.User, error) {
	name := displayName(profile.Name, profile.Email)
	if len([]rune(name)) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}

	user := &domain.User{
		Email:    profile.Email,
		Name:     strings.TrimSpace(name),
		IsActive: true,
	}
	if profile.EmailVerified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		return s.oauthRepo.Create(ctx, &domain.OAuthAccount{
			UserID:         user.ID,
			Provider:       profile.Provider,
			ProviderUserID: profile.ProviderUserID,
			Email:          profile.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserRegistered,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"provider": profile.Provider},
	})

	return user, nil
}

func (s *oauthService) finish(ctx context.Context, user *domain.User, profile *domain.OAuthProfile, result *OAuthLoginResult) (*OAuthLoginResult, error) {
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	if user.MFAEnabled {
		result.MFARequired = true
		return result, nil
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		s.log.WithContext(ctx).Warn("failed to update last login", "user_id", user.ID.String(), "error", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserLogin,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"method": "oauth", "provider": profile.Provider},
	})

	return result, nil
}
