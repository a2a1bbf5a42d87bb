package service

import (
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testHasher = security.NewPasswordHasher(security.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})

	testTokens = config.TokenConfig{
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		InvitationTTL:   7 * 24 * time.Hour,
	}
)

// newAuditMock принимает любые события; проверка через recordedActions
func newAuditMock() *MockAuditService {
	audit := new(MockAuditService)
	audit.On("Record", mock.Anything, mock.Anything).Return()
	return audit
}

func recordedActions(audit *MockAuditService) []string {
	var actions []string
	for _, call := range audit.Calls {
		if call.Method == "Record" {
			actions = append(actions, call.Arguments.Get(1).(AuditEntry).Action)
		}
	}
	return actions
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := testHasher.Hash(password)
	require.NoError(t, err)
	return hash
}

func newTestUser(t *testing.T, password string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		ID:              uuid.New(),
		Email:           "alice@example.com",
		Name:            "Alice",
		IsActive:        true,
		EmailVerifiedAt: &now,
		SessionVersion:  1,
	}
	if password != "" {
		user.PasswordHash = hashPassword(t, password)
	}
	return user
}
