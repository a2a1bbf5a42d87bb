package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/google/uuid"
)

type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.EmailTokenRepository
	backupRepo repository.BackupCodeRepository
	tx         repository.Transactor
	hasher     *security.PasswordHasher
	notifier   Notifier
	audit      AuditService
	tokens     config.TokenConfig
	log        *logger.Logger

	// dummyHash выравнивает время ответа для несуществующих email
	dummyHash string
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.EmailTokenRepository,
	backupRepo repository.BackupCodeRepository,
	tx repository.Transactor,
	hasher *security.PasswordHasher,
	notifier Notifier,
	audit AuditService,
	tokens config.TokenConfig,
	log *logger.Logger,
) AuthService {
	dummyHash, _ := hasher.Hash("teamhub-timing-equalizer")

	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		backupRepo: backupRepo,
		tx:         tx,
		hasher:     hasher,
		notifier:   notifier,
		audit:      audit,
		tokens:     tokens,
		log:        log,
		dummyHash:  dummyHash,
	}
}

// Register создает пользователя и отправляет письмо для подтверждения email
func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = domain.NormalizeEmail(input.Email)

	v := domain.ValidationErrors{}
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, maxNameLength)
	v.Email("email", input.Email)
	if err := security.ValidatePassword(input.Password); err != nil {
		v.Add("password", err.Error())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if input.Superuser {
		now := time.Now().UTC()
		user.IsSuperuser = true
		user.EmailVerifiedAt = &now
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserRegistered,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"superuser": input.Superuser},
	})

	if input.Superuser {
		return user, nil
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.WithContext(ctx).Error("failed to send verification email", "user_id", user.ID.String(), "error", err)
	}

	return user, nil
}

// Login проверяет пароль; ошибка не раскрывает, существует ли email
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_, _ = s.hasher.Verify(s.dummyHash, password)
		s.loginFailed(ctx, nil, email, "unknown_email")
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := checkPassword(s.hasher, user, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.loginFailed(ctx, user, email, "bad_password")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.loginFailed(ctx, user, email, "disabled")
		return nil, domain.ErrAccountDisabled
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	if user.MFAEnabled {
		return &LoginResult{User: user, MFARequired: true}, nil
	}

	s.completeLogin(ctx, user, "password")
	return &LoginResult{User: user}, nil
}

// CompleteMFA завершает вход вторым фактором: TOTP или резервным кодом
func (s *authService) CompleteMFA(ctx context.Context, userID uuid.UUID, code string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	if !user.MFAEnabled {
		return nil, domain.ErrMFANotEnabled
	}

	if err := verifySecondFactor(ctx, s.userRepo, s.backupRepo, s.audit, user, code); err != nil {
		s.loginFailed(ctx, user, user.Email, "bad_mfa_code")
		return nil, err
	}

	s.completeLogin(ctx, user, "mfa")
	return user, nil
}

// VerifyEmail погашает токен и отмечает email подтверждённым
func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	var userID uuid.UUID

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emailToken, err := consumeEmailToken(ctx, s.tokenRepo, token, domain.PurposeVerifyEmail)
		if err != nil {
			return err
		}
		userID = emailToken.UserID
		return s.userRepo.SetEmailVerified(ctx, userID, true)
	})
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditEmailVerified,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})

	return user, nil
}

func (s *authService) ResendVerification(ctx context.Context, user *domain.User) error {
	if user.IsVerified() {
		return nil
	}
	return s.sendVerification(ctx, user)
}

// ForgotPassword отправляет ссылку для сброса; для неизвестного email молча ничего не делает
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	v := domain.ValidationErrors{}
	v.Email("email", email)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.WithContext(ctx).Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, err := issueEmailToken(ctx, s.tokenRepo, user.ID, domain.PurposeResetPassword, s.tokens.ResetTTL)
	if err != nil {
		return err
	}

	return s.notifier.SendPasswordReset(ctx, user, token)
}

// ResetPassword меняет пароль по одноразовому токену; старые сессии становятся недействительны
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword("password", newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	var userID uuid.UUID
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emailToken, err := consumeEmailToken(ctx, s.tokenRepo, token, domain.PurposeResetPassword)
		if err != nil {
			return err
		}
		userID = emailToken.UserID

		if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		// ссылка пришла на этот адрес, значит он принадлежит пользователю
		return s.userRepo.SetEmailVerified(ctx, userID, true)
	})
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditPasswordReset,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})

	if err := s.notifier.SendPasswordChanged(ctx, user); err != nil {
		s.log.WithContext(ctx).Error("failed to send password changed email", "user_id", user.ID.String(), "error", err)
	}

	return nil
}

func (s *authService) Logout(ctx context.Context, user *domain.User) {
	if user == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserLogout,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})
}

// CurrentUser загружает владельца сессии; сессия со старой версией недействительна
func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID, sessionVersion int) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive || user.SessionVersion != sessionVersion {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *authService) sendVerification(ctx context.Context, user *domain.User) error {
	token, err := issueEmailToken(ctx, s.tokenRepo, user.ID, domain.PurposeVerifyEmail, s.tokens.VerificationTTL)
	if err != nil {
		return err
	}
	return s.notifier.SendVerification(ctx, user, token)
}

// rehash обновляет хэш, созданный с устаревшими параметрами argon2
func (s *authService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WithContext(ctx).Warn("failed to rehash password", "user_id", user.ID.String(), "error", err)
		return
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.log.WithContext(ctx).Warn("failed to store rehashed password", "user_id", user.ID.String(), "error", err)
		return
	}
	user.PasswordHash = hash
	user.SessionVersion++
}

func (s *authService) completeLogin(ctx context.Context, user *domain.User, method string) {
	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		s.log.WithContext(ctx).Warn("failed to update last login", "user_id", user.ID.String(), "error", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserLogin,
		TargetType: "user",
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"method": method},
	})
}

func (s *authService) loginFailed(ctx context.Context, user *domain.User, email, reason string) {
	entry := AuditEntry{
		Actor:      user,
		Action:     domain.AuditUserLoginFailed,
		TargetType: "user",
		Metadata:   map[string]any{"email": email, "reason": reason},
	}
	if user != nil {
		entry.TargetID = user.ID.String()
	}
	s.audit.Record(ctx, entry)
}
