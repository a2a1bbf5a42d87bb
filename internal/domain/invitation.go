package domain

import (
	"time"

	"github.com/google/uuid"
)

type TeamInvitation struct {
	ID         int64
	TeamID     int64
	TeamName   string
	Email      string
	Role       TeamRole
	TokenHash  string
	InvitedBy  *uuid.UUID
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

func (i *TeamInvitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

func (i *TeamInvitation) IsPending(now time.Time) bool {
	return i.AcceptedAt == nil && !i.IsExpired(now)
}
