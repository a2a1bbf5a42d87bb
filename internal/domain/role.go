package domain

import "time"

type Permission string

const (
	PermUsersRead  Permission = "users:read"
	PermUsersWrite Permission = "users:write"
	PermRolesRead  Permission = "roles:read"
	PermRolesWrite Permission = "roles:write"
	PermTagsWrite  Permission = "tags:write"
	PermAuditRead  Permission = "audit:read"
	PermTeamsRead  Permission = "teams:read"
)

// KnownPermissions - все права, которые можно выдать роли
var KnownPermissions = []Permission{
	PermUsersRead,
	PermUsersWrite,
	PermRolesRead,
	PermRolesWrite,
	PermTagsWrite,
	PermAuditRead,
	PermTeamsRead,
}

func IsKnownPermission(p Permission) bool {
	for _, known := range KnownPermissions {
		if known == p {
			return true
		}
	}
	return false
}

type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (r *Role) Has(p Permission) bool {
	for _, perm := range r.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}
