package domain

import (
	"time"

	"github.com/google/uuid"
)

type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// EmailToken хранит только SHA-256 хэш токена, отправленного письмом
type EmailToken struct {
	ID        int64
	UserID    uuid.UUID
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Check проверяет, что токен не использован и не просрочен
func (t *EmailToken) Check(now time.Time) error {
	if t.UsedAt != nil {
		return ErrTokenInvalid
	}
	if !now.Before(t.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
