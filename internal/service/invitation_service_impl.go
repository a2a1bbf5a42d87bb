package service

import (
	"context"
	"errors"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/security"
)

type invitationService struct {
	invitationRepo repository.InvitationRepository
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	tx             repository.Transactor
	notifier       Notifier
	audit          AuditService
	tokens         config.TokenConfig
	log            *logger.Logger
}

// NewInvitationService создает новый экземпляр InvitationService
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	notifier Notifier,
	audit AuditService,
	tokens config.TokenConfig,
	log *logger.Logger,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		tx:             tx,
		notifier:       notifier,
		audit:          audit,
		tokens:         tokens,
		log:            log,
	}
}

// Invite создает приглашение и отправляет ссылку на email
func (s *invitationService) Invite(ctx context.Context, actor *domain.User, teamID int64, email string, role domain.TeamRole) (*domain.TeamInvitation, error) {
	email = domain.NormalizeEmail(email)
	if role == "" {
		role = domain.TeamRoleMember
	}

	v := domain.ValidationErrors{}
	v.Email("email", email)
	if role != domain.TeamRoleAdmin && role != domain.TeamRoleMember {
		v.Add("role", "role must be admin or member")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := teamManager(ctx, s.teamRepo, teamID, actor); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNotMember(ctx, teamID, email); err != nil {
		return nil, err
	}

	if _, err := s.invitationRepo.FindPending(ctx, teamID, email); err == nil {
		return nil, domain.ErrInvitationPending
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	plain, hash, err := security.NewToken()
	if err != nil {
		return nil, err
	}

	inviterID := actor.ID
	inv := &domain.TeamInvitation{
		TeamID:    teamID,
		TeamName:  team.Name,
		Email:     email,
		Role:      role,
		TokenHash: hash,
		InvitedBy: &inviterID,
		ExpiresAt: time.Now().UTC().Add(s.tokens.InvitationTTL),
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     domain.AuditInvitationCreated,
		TargetType: "team",
		TargetID:   formatID(teamID),
		Metadata:   map[string]any{"email": email, "role": string(role)},
	})

	if err := s.notifier.SendInvitation(ctx, inv, actor.Name, plain); err != nil {
		s.log.WithContext(ctx).Error("failed to send invitation email", "team_id", teamID, "error", err)
	}

	return inv, nil
}

func (s *invitationService) ListPending(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamInvitation, error) {
	if _, err := teamManager(ctx, s.teamRepo, teamID, actor); err != nil {
		return nil, err
	}

	invitations, err := s.invitationRepo.ListPendingForTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if invitations == nil {
		invitations = []*domain.TeamInvitation{}
	}
	return invitations, nil
}

func (s *invitationService) Revoke(ctx context.Context, actor *domain.User, teamID, invitationID int64) error {
	if _, err := teamManager(ctx, s.teamRepo, teamID, actor); err != nil {
		return err
	}

	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.TeamID != teamID {
		return domain.NewNotFoundError("invitation")
	}

	if err := s.invitationRepo.Delete(ctx, invitationID); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     domain.AuditInvitationRevoked,
		TargetType: "team",
		TargetID:   formatID(teamID),
		Metadata:   map[string]any{"email": inv.Email},
	})

	return nil
}

func (s *invitationService) Preview(ctx context.Context, token string) (*domain.TeamInvitation, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	inv, err := s.invitationRepo.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if inv.AcceptedAt != nil {
		return nil, domain.ErrTokenInvalid
	}
	if inv.IsExpired(time.Now().UTC()) {
		return nil, domain.ErrTokenExpired
	}

	return inv, nil
}

// Accept добавляет пользователя в команду; email приглашения должен совпадать с email аккаунта
func (s *invitationService) Accept(ctx context.Context, user *domain.User, token string) (*domain.TeamInvitation, error) {
	inv, err := s.Preview(ctx, token)
	if err != nil {
		return nil, err
	}

	if domain.NormalizeEmail(inv.Email) != domain.NormalizeEmail(user.Email) {
		return nil, domain.ErrForbidden
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		err := s.teamRepo.AddMember(ctx, &domain.TeamMember{
			TeamID: inv.TeamID,
			UserID: user.ID,
			Role:   inv.Role,
		})
		if err != nil {
			return err
		}
		return s.invitationRepo.MarkAccepted(ctx, inv.ID)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv.AcceptedAt = &now

	s.audit.Record(ctx, AuditEntry{
		Actor:      user,
		Action:     domain.AuditInvitationAccepted,
		TargetType: "team",
		TargetID:   formatID(inv.TeamID),
		Metadata:   map[string]any{"role": string(inv.Role)},
	})

	return inv, nil
}

func (s *invitationService) ensureNotMember(ctx context.Context, teamID int64, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.teamRepo.GetMember(ctx, teamID, user.ID); err == nil {
		return domain.ErrAlreadyMember
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
