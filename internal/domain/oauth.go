package domain

import (
	"time"

	"github.com/google/uuid"
)

type OAuthAccount struct {
	ID             int64
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
	Email          string
	CreatedAt      time.Time
}

// OAuthProfile - профиль, полученный от провайдера после обмена кода
type OAuthProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}
