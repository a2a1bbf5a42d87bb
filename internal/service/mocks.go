package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	args := m.Called(ctx, id, verified)
	return args.Error(0)
}

func (m *MockUserRepository) SetMFA(ctx context.Context, id uuid.UUID, enabled bool, secret string) error {
	args := m.Called(ctx, id, enabled, secret)
	return args.Error(0)
}

func (m *MockUserRepository) UseTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error) {
	args := m.Called(ctx, id, step)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) SetTags(ctx context.Context, id uuid.UUID, tagIDs []int64) error {
	args := m.Called(ctx, id, tagIDs)
	return args.Error(0)
}

func (m *MockUserRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTeamRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TeamMembership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamMembership), args.Error(1)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockTeamRepository) GetMember(ctx context.Context, teamID int64, userID uuid.UUID) (*domain.TeamMember, error) {
	args := m.Called(ctx, teamID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamMember), args.Error(1)
}

func (m *MockTeamRepository) ListMembers(ctx context.Context, teamID int64) ([]*domain.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamMember), args.Error(1)
}

func (m *MockTeamRepository) UpdateMemberRole(ctx context.Context, teamID int64, userID uuid.UUID, role domain.TeamRole) error {
	args := m.Called(ctx, teamID, userID, role)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMember(ctx context.Context, teamID int64, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamRepository) CountOwners(ctx context.Context, teamID int64) (int, error) {
	args := m.Called(ctx, teamID)
	return args.Int(0), args.Error(1)
}

func (m *MockTeamRepository) SoleOwnedWithMembers(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) DeleteSoleMemberTeams(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Role), args.Error(1)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockTagRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tag), args.Error(1)
}

func (m *MockTagRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tag), args.Error(1)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *domain.TeamInvitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id int64) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) ListPendingForTeam(ctx context.Context, teamID int64) ([]*domain.TeamInvitation, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) FindPending(ctx context.Context, teamID int64, email string) (*domain.TeamInvitation, error) {
	args := m.Called(ctx, teamID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) MarkAccepted(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvitationRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEmailTokenRepository struct {
	mock.Mock
}

func (m *MockEmailTokenRepository) Create(ctx context.Context, token *domain.EmailToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockEmailTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.EmailToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailToken), args.Error(1)
}

func (m *MockEmailTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEmailTokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error {
	args := m.Called(ctx, userID, purpose)
	return args.Error(0)
}

type MockBackupCodeRepository struct {
	mock.Mock
}

func (m *MockBackupCodeRepository) Replace(ctx context.Context, userID uuid.UUID, hashes []string) error {
	args := m.Called(ctx, userID, hashes)
	return args.Error(0)
}

func (m *MockBackupCodeRepository) Consume(ctx context.Context, userID uuid.UUID, hash string) (bool, error) {
	args := m.Called(ctx, userID, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackupCodeRepository) CountRemaining(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockBackupCodeRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockOAuthAccountRepository struct {
	mock.Mock
}

func (m *MockOAuthAccountRepository) Create(ctx context.Context, account *domain.OAuthAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockOAuthAccountRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthAccount), args.Error(1)
}

func (m *MockOAuthAccountRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.OAuthAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OAuthAccount), args.Error(1)
}

func (m *MockOAuthAccountRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.AuditLog), args.Int(1), args.Error(2)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, entry AuditEntry) {
	m.Called(ctx, entry)
}

func (m *MockAuditService) List(ctx context.Context, filter domain.AuditFilter) (domain.Paginated[*domain.AuditLog], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Paginated[*domain.AuditLog]), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, user *domain.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, user *domain.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockNotifier) SendInvitation(ctx context.Context, inv *domain.TeamInvitation, inviterName, token string) error {
	args := m.Called(ctx, inv, inviterName, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordChanged(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockNotifier) SendMFAEnabled(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// InlineTransactor выполняет fn без транзакции
type InlineTransactor struct {
	Calls int
}

func (t *InlineTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}
