package domain

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	// CreatedBy обнуляется при удалении автора; владельцы определяются ролью в team_members
	CreatedBy   *uuid.UUID
	MemberCount int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleOwner, TeamRoleAdmin, TeamRoleMember:
		return true
	}
	return false
}

// CanManage - владелец и администратор управляют участниками и приглашениями
func (r TeamRole) CanManage() bool {
	return r == TeamRoleOwner || r == TeamRoleAdmin
}

type TeamMember struct {
	TeamID   int64
	UserID   uuid.UUID
	Email    string
	Name     string
	Role     TeamRole
	JoinedAt time.Time
}

// TeamMembership - команда вместе с ролью текущего пользователя
type TeamMembership struct {
	Team Team
	Role TeamRole
}
