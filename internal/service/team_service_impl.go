package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/google/uuid"
)

type teamService struct {
	teamRepo repository.TeamRepository
	tx       repository.Transactor
	audit    AuditService
}

// NewTeamService создает новый экземпляр TeamService
func NewTeamService(teamRepo repository.TeamRepository, tx repository.Transactor, audit AuditService) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		tx:       tx,
		audit:    audit,
	}
}

// Create создает команду; создатель становится её владельцем
func (s *teamService) Create(ctx context.Context, actor *domain.User, input TeamInput) (*domain.Team, error) {
	input, err := normalizeTeamInput(input)
	if err != nil {
		return nil, err
	}

	team := &domain.Team{
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		CreatedBy:   &actor.ID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.teamRepo.Create(ctx, team); err != nil {
			return err
		}
		return s.teamRepo.AddMember(ctx, &domain.TeamMember{
			TeamID: team.ID,
			UserID: actor.ID,
			Role:   domain.TeamRoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}
	team.MemberCount = 1

	s.record(ctx, actor, domain.AuditTeamCreated, team.ID, map[string]any{"slug": team.Slug})

	return team, nil
}

func (s *teamService) ListForUser(ctx context.Context, user *domain.User) ([]*domain.TeamMembership, error) {
	memberships, err := s.teamRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if memberships == nil {
		memberships = []*domain.TeamMembership{}
	}
	return memberships, nil
}

func (s *teamService) Get(ctx context.Context, actor *domain.User, teamID int64) (*domain.TeamMembership, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	member, err := s.member(ctx, teamID, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) && actor.Can(domain.PermTeamsRead) {
			return &domain.TeamMembership{Team: *team}, nil
		}
		return nil, err
	}

	return &domain.TeamMembership{Team: *team, Role: member.Role}, nil
}

func (s *teamService) Update(ctx context.Context, actor *domain.User, teamID int64, input TeamInput) (*domain.Team, error) {
	if _, err := s.requireManager(ctx, teamID, actor); err != nil {
		return nil, err
	}

	input, err := normalizeTeamInput(input)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Name = input.Name
	team.Slug = input.Slug
	team.Description = input.Description

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditTeamUpdated, team.ID, nil)

	return team, nil
}

// Delete доступен только владельцу
func (s *teamService) Delete(ctx context.Context, actor *domain.User, teamID int64) error {
	member, err := s.member(ctx, teamID, actor.ID)
	if err != nil {
		return err
	}
	if member.Role != domain.TeamRoleOwner {
		return domain.ErrForbidden
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditTeamDeleted, teamID, nil)

	return nil
}

func (s *teamService) ListMembers(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamMember, error) {
	if _, err := s.member(ctx, teamID, actor.ID); err != nil {
		if !(errors.Is(err, domain.ErrForbidden) && actor.Can(domain.PermTeamsRead)) {
			return nil, err
		}
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	return members, nil
}

// UpdateMemberRole: роль owner выдаёт и снимает только владелец, последнего владельца понизить нельзя
func (s *teamService) UpdateMemberRole(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID, role domain.TeamRole) error {
	if !role.Valid() {
		return domain.NewValidationError("role", "role must be one of owner, admin, member")
	}

	manager, err := s.requireManager(ctx, teamID, actor)
	if err != nil {
		return err
	}

	target, err := s.teamRepo.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}

	if (role == domain.TeamRoleOwner || target.Role == domain.TeamRoleOwner) && manager.Role != domain.TeamRoleOwner {
		return domain.ErrForbidden
	}

	if target.Role == domain.TeamRoleOwner {
		if err := s.ensureAnotherOwner(ctx, teamID); err != nil {
			return err
		}
	}

	if err := s.teamRepo.UpdateMemberRole(ctx, teamID, userID, role); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditMemberRoleChanged, teamID, map[string]any{
		"user_id": userID.String(),
		"from":    string(target.Role),
		"to":      string(role),
	})

	return nil
}

// RemoveMember: администратор удаляет только обычных участников, владелец - любых
func (s *teamService) RemoveMember(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID) error {
	if userID == actor.ID {
		return s.Leave(ctx, actor, teamID)
	}

	manager, err := s.requireManager(ctx, teamID, actor)
	if err != nil {
		return err
	}

	target, err := s.teamRepo.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role != domain.TeamRoleMember && manager.Role != domain.TeamRoleOwner {
		return domain.ErrForbidden
	}
	if target.Role == domain.TeamRoleOwner {
		if err := s.ensureAnotherOwner(ctx, teamID); err != nil {
			return err
		}
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditMemberRemoved, teamID, map[string]any{"user_id": userID.String()})

	return nil
}

func (s *teamService) Leave(ctx context.Context, actor *domain.User, teamID int64) error {
	member, err := s.member(ctx, teamID, actor.ID)
	if err != nil {
		return err
	}
	if member.Role == domain.TeamRoleOwner {
		if err := s.ensureAnotherOwner(ctx, teamID); err != nil {
			return err
		}
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, actor.ID); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditMemberLeft, teamID, nil)

	return nil
}

func (s *teamService) member(ctx context.Context, teamID int64, userID uuid.UUID) (*domain.TeamMember, error) {
	return teamMember(ctx, s.teamRepo, teamID, userID)
}

func (s *teamService) requireManager(ctx context.Context, teamID int64, actor *domain.User) (*domain.TeamMember, error) {
	return teamManager(ctx, s.teamRepo, teamID, actor)
}

func (s *teamService) ensureAnotherOwner(ctx context.Context, teamID int64) error {
	owners, err := s.teamRepo.CountOwners(ctx, teamID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return domain.ErrLastOwner
	}
	return nil
}

func (s *teamService) record(ctx context.Context, actor *domain.User, action string, teamID int64, metadata map[string]any) {
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		TargetType: "team",
		TargetID:   formatID(teamID),
		Metadata:   metadata,
	})
}

func normalizeTeamInput(input TeamInput) (TeamInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if strings.TrimSpace(input.Slug) == "" {
		input.Slug = domain.Slugify(input.Name)
	} else {
		input.Slug = domain.Slugify(input.Slug)
	}

	v := domain.ValidationErrors{}
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, maxNameLength)
	v.MaxLength("description", input.Description, maxDescriptionLength)
	if input.Name != "" && input.Slug == "" {
		v.Add("slug", "slug must contain letters or digits")
	}
	v.MaxLength("slug", input.Slug, maxSlugLength)

	return input, v.Err()
}

// teamMember возвращает членство или ErrForbidden, если пользователь не в команде
func teamMember(ctx context.Context, teamRepo repository.TeamRepository, teamID int64, userID uuid.UUID) (*domain.TeamMember, error) {
	member, err := teamRepo.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	return member, nil
}

// teamManager - владелец или администратор команды
func teamManager(ctx context.Context, teamRepo repository.TeamRepository, teamID int64, actor *domain.User) (*domain.TeamMember, error) {
	member, err := teamMember(ctx, teamRepo, teamID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		return nil, domain.ErrForbidden
	}
	return member, nil
}
