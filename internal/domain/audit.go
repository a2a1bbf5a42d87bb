package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditUserRegistered     = "user.registered"
	AuditUserLogin          = "user.login"
	AuditUserLoginFailed    = "user.login_failed"
	AuditUserLogout         = "user.logout"
	AuditEmailVerified      = "user.email_verified"
	AuditPasswordChanged    = "user.password_changed"
	AuditPasswordReset      = "user.password_reset"
	AuditProfileUpdated     = "user.profile_updated"
	AuditAccountDeleted     = "user.deleted"
	AuditMFAEnabled         = "mfa.enabled"
	AuditMFADisabled        = "mfa.disabled"
	AuditBackupCodesRenewed = "mfa.backup_codes_regenerated"
	AuditBackupCodeUsed     = "mfa.backup_code_used"
	AuditOAuthLinked        = "oauth.linked"
	AuditOAuthUnlinked      = "oauth.unlinked"
	AuditTeamCreated        = "team.created"
	AuditTeamUpdated        = "team.updated"
	AuditTeamDeleted        = "team.deleted"
	AuditMemberRoleChanged  = "team.member_role_changed"
	AuditMemberRemoved      = "team.member_removed"
	AuditMemberLeft         = "team.member_left"
	AuditInvitationCreated  = "invitation.created"
	AuditInvitationRevoked  = "invitation.revoked"
	AuditInvitationAccepted = "invitation.accepted"
	AuditAdminUserUpdated   = "admin.user_updated"
	AuditAdminUserDeleted   = "admin.user_deleted"
	AuditAdminUserTagged    = "admin.user_tags_updated"
	AuditAdminRoleCreated   = "admin.role_created"
	AuditAdminRoleUpdated   = "admin.role_updated"
	AuditAdminRoleDeleted   = "admin.role_deleted"
	AuditAdminTagCreated    = "admin.tag_created"
	AuditAdminTagDeleted    = "admin.tag_deleted"
)

type AuditLog struct {
	ID         int64
	ActorID    *uuid.UUID
	ActorEmail string
	Action     string
	TargetType string
	TargetID   string
	IPAddress  string
	UserAgent  string
	Metadata   map[string]any
	CreatedAt  time.Time
}

type AuditFilter struct {
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	Page       Page
}

// RequestMeta - данные запроса, которые попадают в журнал аудита
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
