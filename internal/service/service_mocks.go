package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResult), args.Error(1)
}

func (m *MockAuthService) CompleteMFA(ctx context.Context, userID uuid.UUID, code string) (*domain.User, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

func (m *MockAuthService) Logout(ctx context.Context, user *domain.User) {
	m.Called(ctx, user)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID uuid.UUID, sessionVersion int) (*domain.User, error) {
	args := m.Called(ctx, userID, sessionVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockMFAService struct {
	mock.Mock
}

func (m *MockMFAService) BeginSetup(ctx context.Context, user *domain.User) (*MFASetup, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MFASetup), args.Error(1)
}

func (m *MockMFAService) Enable(ctx context.Context, user *domain.User, code string) ([]string, error) {
	args := m.Called(ctx, user, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMFAService) Disable(ctx context.Context, user *domain.User, confirmation string) error {
	args := m.Called(ctx, user, confirmation)
	return args.Error(0)
}

func (m *MockMFAService) RegenerateBackupCodes(ctx context.Context, user *domain.User, confirmation string) ([]string, error) {
	args := m.Called(ctx, user, confirmation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMFAService) RemainingBackupCodes(ctx context.Context, user *domain.User) (int, error) {
	args := m.Called(ctx, user)
	return args.Int(0), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProfileService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) (*domain.User, error) {
	args := m.Called(ctx, user, currentPassword, newPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProfileService) DeleteAccount(ctx context.Context, user *domain.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockProfileService) ListOAuthAccounts(ctx context.Context, user *domain.User) ([]*domain.OAuthAccount, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OAuthAccount), args.Error(1)
}

func (m *MockProfileService) UnlinkOAuth(ctx context.Context, user *domain.User, provider string) error {
	args := m.Called(ctx, user, provider)
	return args.Error(0)
}

type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Create(ctx context.Context, actor *domain.User, input TeamInput) (*domain.Team, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamService) ListForUser(ctx context.Context, user *domain.User) ([]*domain.TeamMembership, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamMembership), args.Error(1)
}

func (m *MockTeamService) Get(ctx context.Context, actor *domain.User, teamID int64) (*domain.TeamMembership, error) {
	args := m.Called(ctx, actor, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamMembership), args.Error(1)
}

func (m *MockTeamService) Update(ctx context.Context, actor *domain.User, teamID int64, input TeamInput) (*domain.Team, error) {
	args := m.Called(ctx, actor, teamID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamService) Delete(ctx context.Context, actor *domain.User, teamID int64) error {
	args := m.Called(ctx, actor, teamID)
	return args.Error(0)
}

func (m *MockTeamService) ListMembers(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamMember, error) {
	args := m.Called(ctx, actor, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamMember), args.Error(1)
}

func (m *MockTeamService) UpdateMemberRole(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID, role domain.TeamRole) error {
	args := m.Called(ctx, actor, teamID, userID, role)
	return args.Error(0)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, actor *domain.User, teamID int64, userID uuid.UUID) error {
	args := m.Called(ctx, actor, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamService) Leave(ctx context.Context, actor *domain.User, teamID int64) error {
	args := m.Called(ctx, actor, teamID)
	return args.Error(0)
}

type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Invite(ctx context.Context, actor *domain.User, teamID int64, email string, role domain.TeamRole) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, actor, teamID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationService) ListPending(ctx context.Context, actor *domain.User, teamID int64) ([]*domain.TeamInvitation, error) {
	args := m.Called(ctx, actor, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationService) Revoke(ctx context.Context, actor *domain.User, teamID, invitationID int64) error {
	args := m.Called(ctx, actor, teamID, invitationID)
	return args.Error(0)
}

func (m *MockInvitationService) Preview(ctx context.Context, token string) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, user *domain.User, token string) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, user, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, filter domain.UserFilter) (domain.Paginated[*domain.User], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Paginated[*domain.User]), args.Error(1)
}

func (m *MockAdminService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) UpdateUser(ctx context.Context, actor *domain.User, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockAdminService) SetUserTags(ctx context.Context, actor *domain.User, id uuid.UUID, tagIDs []int64) (*domain.User, error) {
	args := m.Called(ctx, actor, id, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Role), args.Error(1)
}

func (m *MockAdminService) CreateRole(ctx context.Context, actor *domain.User, input RoleInput) (*domain.Role, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockAdminService) UpdateRole(ctx context.Context, actor *domain.User, id int64, input RoleInput) (*domain.Role, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockAdminService) DeleteRole(ctx context.Context, actor *domain.User, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockAdminService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tag), args.Error(1)
}

func (m *MockAdminService) CreateTag(ctx context.Context, actor *domain.User, input TagInput) (*domain.Tag, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *MockAdminService) DeleteTag(ctx context.Context, actor *domain.User, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockAdminService) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Paginated[*domain.AuditLog]), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context) (*domain.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) Login(ctx context.Context, profile *domain.OAuthProfile, current *domain.User) (*OAuthLoginResult, error) {
	args := m.Called(ctx, profile, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OAuthLoginResult), args.Error(1)
}
