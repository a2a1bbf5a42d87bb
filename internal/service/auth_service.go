package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string

	// Superuser выставляется только из CLI: email считается подтверждённым
	Superuser bool
}

// LoginResult - при MFARequired сессия выдаётся только после второго фактора
type LoginResult struct {
	User        *domain.User
	MFARequired bool
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CompleteMFA(ctx context.Context, userID uuid.UUID, code string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendVerification(ctx context.Context, user *domain.User) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context, user *domain.User)
	CurrentUser(ctx context.Context, userID uuid.UUID, sessionVersion int) (*domain.User, error)
}
