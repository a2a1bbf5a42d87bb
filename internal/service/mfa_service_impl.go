package service

import (
	"context"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/google/uuid"
)

type mfaService struct {
	userRepo   repository.UserRepository
	backupRepo repository.BackupCodeRepository
	tx         repository.Transactor
	hasher     *security.PasswordHasher
	notifier   Notifier
	audit      AuditService
	issuer     string
	log        *logger.Logger
}

// NewMFAService создает новый экземпляр MFAService
func NewMFAService(
	userRepo repository.UserRepository,
	backupRepo repository.BackupCodeRepository,
	tx repository.Transactor,
	hasher *security.PasswordHasher,
	notifier Notifier,
	audit AuditService,
	issuer string,
	log *logger.Logger,
) MFAService {
	return &mfaService{
		userRepo:   userRepo,
		backupRepo: backupRepo,
		tx:         tx,
		hasher:     hasher,
		notifier:   notifier,
		audit:      audit,
		issuer:     issuer,
		log:        log,
	}
}

// BeginSetup генерирует новый секрет; MFA остаётся выключенной до подтверждения кодом
func (s *mfaService) BeginSetup(ctx context.Context, user *domain.User) (*MFASetup, error) {
	if user.MFAEnabled {
		return nil, domain.ErrMFAAlreadyEnabled
	}

	key, err := security.GenerateTOTP(s.issuer, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetMFA(ctx, user.ID, false, key.Secret); err != nil {
		return nil, err
	}
	user.TOTPSecret = key.Secret

	return &MFASetup{Secret: key.Secret, URL: key.URL}, nil
}

// Enable включает MFA после проверки первого кода и возвращает резервные коды
func (s *mfaService) Enable(ctx context.Context, user *domain.User, code string) ([]string, error) {
	if user.MFAEnabled {
		return nil, domain.ErrMFAAlreadyEnabled
	}
	if user.TOTPSecret == "" {
		return nil, domain.NewBadRequestError("multi-factor setup has not been started")
	}
	step, ok := security.MatchTOTP(code, user.TOTPSecret, time.Now())
	if !ok {
		return nil, domain.ErrInvalidMFACode
	}

	codes, hashes, err := security.GenerateBackupCodes(security.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.SetMFA(ctx, user.ID, true, user.TOTPSecret); err != nil {
			return err
		}
		if err := useTOTPStep(ctx, s.userRepo, user.ID, step); err != nil {
			return err
		}
		return s.backupRepo.Replace(ctx, user.ID, hashes)
	})
	if err != nil {
		return nil, err
	}
	user.MFAEnabled = true

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditMFAEnabled,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})

	if err := s.notifier.SendMFAEnabled(ctx, user); err != nil {
		s.log.WithContext(ctx).Error("failed to send mfa enabled email", "user_id", user.ID.String(), "error", err)
	}

	return codes, nil
}

func (s *mfaService) Disable(ctx context.Context, user *domain.User, confirmation string) error {
	if !user.MFAEnabled {
		return domain.ErrMFANotEnabled
	}
	if err := s.confirm(ctx, user, confirmation); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.SetMFA(ctx, user.ID, false, ""); err != nil {
			return err
		}
		return s.backupRepo.DeleteForUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}
	user.MFAEnabled = false
	user.TOTPSecret = ""

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditMFADisabled,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})

	return nil
}

// RegenerateBackupCodes заменяет все резервные коды новым набором
func (s *mfaService) RegenerateBackupCodes(ctx context.Context, user *domain.User, confirmation string) ([]string, error) {
	if !user.MFAEnabled {
		return nil, domain.ErrMFANotEnabled
	}
	if err := s.confirm(ctx, user, confirmation); err != nil {
		return nil, err
	}

	codes, hashes, err := security.GenerateBackupCodes(security.BackupCodeCount)
	if err != nil {
		return nil, err
	}
	if err := s.backupRepo.Replace(ctx, user.ID, hashes); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditBackupCodesRenewed,
		TargetType: "user",
		TargetID:   user.ID.String(),
	})

	return codes, nil
}

func (s *mfaService) RemainingBackupCodes(ctx context.Context, user *domain.User) (int, error) {
	if !user.MFAEnabled {
		return 0, nil
	}
	return s.backupRepo.CountRemaining(ctx, user.ID)
}

func (s *mfaService) confirm(ctx context.Context, user *domain.User, confirmation string) error {
	if user.HasPassword() {
		ok, err := checkPassword(s.hasher, user, confirmation)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError("password", "password is incorrect")
		}
		return nil
	}
	return verifySecondFactor(ctx, s.userRepo, s.backupRepo, s.audit, user, confirmation)
}

// verifySecondFactor принимает TOTP или одноразовый резервный код.
// Каждый шаг TOTP принимается один раз
func verifySecondFactor(
	ctx context.Context,
	userRepo repository.UserRepository,
	backupRepo repository.BackupCodeRepository,
	audit AuditService,
	user *domain.User,
	code string,
) error {
	if security.LooksLikeBackupCode(code) {
		used, err := backupRepo.Consume(ctx, user.ID, security.HashBackupCode(code))
		if err != nil {
			return err
		}
		if !used {
			return domain.ErrInvalidMFACode
		}
		audit.Record(ctx, AuditEntry{
			Actor:      user,
			Action:     domain.AuditBackupCodeUsed,
			TargetType: "user",
			TargetID:   user.ID.String(),
		})
		return nil
	}

	step, ok := security.MatchTOTP(code, user.TOTPSecret, time.Now())
	if !ok {
		return domain.ErrInvalidMFACode
	}
	return useTOTPStep(ctx, userRepo, user.ID, step)
}

func useTOTPStep(ctx context.Context, userRepo repository.UserRepository, userID uuid.UUID, step int64) error {
	fresh, err := userRepo.UseTOTPStep(ctx, userID, step)
	if err != nil {
		return err
	}
	if !fresh {
		return domain.ErrInvalidMFACode
	}
	return nil
}
