package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID
	Email           string
	Name            string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	IsActive        bool
	IsSuperuser     bool
	RoleID          *int64
	Role            *Role
	MFAEnabled      bool
	TOTPSecret      string
	SessionVersion  int
	Tags            []Tag
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// HasPassword - false для аккаунтов, созданных через OAuth
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Can проверяет право доступа: суперпользователь может всё, остальные - по роли
func (u *User) Can(permission Permission) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	if u.Role == nil {
		return false
	}
	return u.Role.Has(permission)
}

// IsStaff - есть доступ к админке
func (u *User) IsStaff() bool {
	return u.IsSuperuser || (u.Role != nil && len(u.Role.Permissions) > 0)
}

type UserFilter struct {
	Search string
	Page   Page
}

type UserStats struct {
	Users         int
	VerifiedUsers int
	MFAUsers      int
	Teams         int
}
