package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/google/uuid"
)

const maxRoleNameLength = 50

type adminService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	tagRepo  repository.TagRepository
	teamRepo repository.TeamRepository
	tx       repository.Transactor
	audit    AuditService
}

// NewAdminService создает новый экземпляр AdminService
func NewAdminService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tagRepo repository.TagRepository,
	teamRepo repository.TeamRepository,
	tx repository.Transactor,
	audit AuditService,
) AdminService {
	return &adminService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		tagRepo:  tagRepo,
		teamRepo: teamRepo,
		tx:       tx,
		audit:    audit,
	}
}

func (s *adminService) ListUsers(ctx context.Context, filter domain.UserFilter) (domain.Paginated[*domain.User], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return domain.Paginated[*domain.User]{}, err
	}

	return domain.NewPaginated(users, total, filter.Page), nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateUser: себя нельзя отключить или лишить прав суперпользователя,
// выдавать права суперпользователя может только суперпользователь.
// Не суперпользователь не меняет роль себе и не выдаёт прав, которых нет у него самого
func (s *adminService) UpdateUser(ctx context.Context, actor *domain.User, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)

	v := domain.ValidationErrors{}
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, maxNameLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == actor.ID && (!input.IsActive || (target.IsSuperuser && !input.IsSuperuser)) {
		return nil, domain.NewBadRequestError("you cannot deactivate or demote your own account")
	}
	if (input.IsSuperuser != target.IsSuperuser || target.IsSuperuser) && !actor.IsSuperuser {
		return nil, domain.ErrForbidden
	}

	roleChanged := !sameRoleID(target.RoleID, input.RoleID)
	if roleChanged && id == actor.ID && !actor.IsSuperuser {
		return nil, domain.ErrForbidden
	}

	if input.RoleID != nil {
		role, err := s.roleRepo.GetByID(ctx, *input.RoleID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("role_id", "role does not exist")
			}
			return nil, err
		}
		if roleChanged && !actor.IsSuperuser {
			for _, perm := range role.Permissions {
				if !actor.Can(perm) {
					return nil, domain.ErrForbidden
				}
			}
		}
	}

	target.Name = input.Name
	target.IsActive = input.IsActive
	target.IsSuperuser = input.IsSuperuser
	target.RoleID = input.RoleID

	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditAdminUserUpdated, "user", id.String(), map[string]any{
		"is_active":    input.IsActive,
		"is_superuser": input.IsSuperuser,
		"role_id":      input.RoleID,
	})

	return s.userRepo.GetByID(ctx, id)
}

func (s *adminService) DeleteUser(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	if id == actor.ID {
		return domain.NewBadRequestError("you cannot delete your own account from the admin panel")
	}

	target, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsSuperuser && !actor.IsSuperuser {
		return domain.ErrForbidden
	}
	if err := ensureNotLastOwner(ctx, s.teamRepo, id); err != nil {
		return err
	}

	if err := removeUser(ctx, s.tx, s.userRepo, s.teamRepo, id); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditAdminUserDeleted, "user", id.String(), map[string]any{"email": target.Email})

	return nil
}

func (s *adminService) SetUserTags(ctx context.Context, actor *domain.User, id uuid.UUID, tagIDs []int64) (*domain.User, error) {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	ids := uniqueIDs(tagIDs)
	tags, err := s.tagRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, domain.NewValidationError("tag_ids", "one or more tags do not exist")
	}

	if err := s.userRepo.SetTags(ctx, id, ids); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditAdminUserTagged, "user", id.String(), map[string]any{"tag_ids": ids})

	return s.userRepo.GetByID(ctx, id)
}

func (s *adminService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	return roles, nil
}

func (s *adminService) CreateRole(ctx context.Context, actor *domain.User, input RoleInput) (*domain.Role, error) {
	input, err := normalizeRoleInput(input)
	if err != nil {
		return nil, err
	}

	role := &domain.Role{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditAdminRoleCreated, "role", formatID(role.ID), map[string]any{"name": role.Name})

	return role, nil
}

func (s *adminService) UpdateRole(ctx context.Context, actor *domain.User, id int64, input RoleInput) (*domain.Role, error) {
	input, err := normalizeRoleInput(input)
	if err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = input.Name
	role.Description = input.Description
	role.Permissions = input.Permissions

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditAdminRoleUpdated, "role", formatID(id), map[string]any{"permissions": role.Permissions})

	return role, nil
}

func (s *adminService) DeleteRole(ctx context.Context, actor *domain.User, id int64) error {
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditAdminRoleDeleted, "role", formatID(id), nil)

	return nil
}

func (s *adminService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

func (s *adminService) CreateTag(ctx context.Context, actor *domain.User, input TagInput) (*domain.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.TrimSpace(input.Color)
	if input.Color == "" {
		input.Color = domain.DefaultTagColor
	}

	tag := &domain.Tag{
		Name:  input.Name,
		Slug:  domain.Slugify(input.Name),
		Color: strings.ToLower(input.Color),
	}

	v := domain.ValidationErrors{}
	v.Required("name", tag.Name)
	v.MaxLength("name", tag.Name, maxRoleNameLength)
	if tag.Name != "" && tag.Slug == "" {
		v.Add("name", "name must contain letters or digits")
	}
	if !domain.IsValidColor(tag.Color) {
		v.Add("color", "color must be a hex value like #64748b")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.record(ctx, actor, domain.AuditAdminTagCreated, "tag", formatID(tag.ID), map[string]any{"slug": tag.Slug})

	return tag, nil
}

func (s *adminService) DeleteTag(ctx context.Context, actor *domain.User, id int64) error {
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, actor, domain.AuditAdminTagDeleted, "tag", formatID(id), nil)

	return nil
}

func (s *adminService) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error) {
	return s.audit.List(ctx, filter)
}

func (s *adminService) Stats(ctx context.Context) (*domain.UserStats, error) {
	return s.userRepo.Stats(ctx)
}

func (s *adminService) record(ctx context.Context, actor *domain.User, action, targetType, targetID string, metadata map[string]any) {
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
	})
}

func normalizeRoleInput(input RoleInput) (RoleInput, error) {
	input.Name = strings.ToLower(strings.TrimSpace(input.Name))
	input.Description = strings.TrimSpace(input.Description)

	v := domain.ValidationErrors{}
	v.Required("name", input.Name)
	v.MaxLength("name", input.Name, maxRoleNameLength)
	v.MaxLength("description", input.Description, maxDescriptionLength)

	seen := make(map[domain.Permission]bool, len(input.Permissions))
	permissions := make([]domain.Permission, 0, len(input.Permissions))
	for _, p := range input.Permissions {
		if !domain.IsKnownPermission(p) {
			v.Add("permissions", "unknown permission: "+string(p))
			continue
		}
		if !seen[p] {
			seen[p] = true
			permissions = append(permissions, p)
		}
	}
	input.Permissions = permissions

	return input, v.Err()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sameRoleID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
