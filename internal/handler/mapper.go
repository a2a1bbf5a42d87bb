package handler

import (
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func domainRoleToHTTP(role *domain.Role) RoleResponse {
	permissions := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		permissions = append(permissions, string(p))
	}
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: permissions,
	}
}

func domainRolesToHTTP(roles []*domain.Role) []RoleResponse {
	result := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		result = append(result, domainRoleToHTTP(role))
	}
	return result
}

func domainTagToHTTP(tag *domain.Tag) TagResponse {
	return TagResponse{
		ID:    tag.ID,
		Name:  tag.Name,
		Slug:  tag.Slug,
		Color: tag.Color,
	}
}

func domainTagsToHTTP(tags []*domain.Tag) []TagResponse {
	result := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		result = append(result, domainTagToHTTP(tag))
	}
	return result
}

func domainUserToHTTP(user *domain.User) UserResponse {
	tags := make([]TagResponse, 0, len(user.Tags))
	for i := range user.Tags {
		tags = append(tags, domainTagToHTTP(&user.Tags[i]))
	}

	var role *RoleResponse
	if user.Role != nil {
		r := domainRoleToHTTP(user.Role)
		role = &r
	}

	permissions := make([]string, 0, len(domain.KnownPermissions))
	for _, p := range domain.KnownPermissions {
		if user.Can(p) {
			permissions = append(permissions, string(p))
		}
	}

	return UserResponse{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		EmailVerified: user.IsVerified(),
		HasPassword:   user.HasPassword(),
		IsActive:      user.IsActive,
		IsSuperuser:   user.IsSuperuser,
		MFAEnabled:    user.MFAEnabled,
		Role:          role,
		Permissions:   permissions,
		Tags:          tags,
		LastLoginAt:   formatTimePtr(user.LastLoginAt),
		CreatedAt:     formatTime(user.CreatedAt),
	}
}

func domainUserPtrToHTTP(user *domain.User) *UserResponse {
	if user == nil {
		return nil
	}
	resp := domainUserToHTTP(user)
	return &resp
}

func domainOAuthAccountsToHTTP(accounts []*domain.OAuthAccount) []OAuthAccountResponse {
	result := make([]OAuthAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, OAuthAccountResponse{
			Provider:  a.Provider,
			Email:     a.Email,
			CreatedAt: formatTime(a.CreatedAt),
		})
	}
	return result
}

func domainTeamToHTTP(team *domain.Team) TeamResponse {
	resp := TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Slug:        team.Slug,
		Description: team.Description,
		MemberCount: team.MemberCount,
		CreatedAt:   formatTime(team.CreatedAt),
	}
	if team.CreatedBy != nil {
		createdBy := team.CreatedBy.String()
		resp.CreatedBy = &createdBy
	}
	return resp
}

func domainMembershipToHTTP(m *domain.TeamMembership) MembershipResponse {
	return MembershipResponse{
		Team: domainTeamToHTTP(&m.Team),
		Role: string(m.Role),
	}
}

func domainMembershipsToHTTP(memberships []*domain.TeamMembership) []MembershipResponse {
	result := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		result = append(result, domainMembershipToHTTP(m))
	}
	return result
}

func domainMembersToHTTP(members []*domain.TeamMember) []TeamMemberResponse {
	result := make([]TeamMemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, TeamMemberResponse{
			UserID:   m.UserID.String(),
			Email:    m.Email,
			Name:     m.Name,
			Role:     string(m.Role),
			JoinedAt: formatTime(m.JoinedAt),
		})
	}
	return result
}

func domainInvitationToHTTP(inv *domain.TeamInvitation) InvitationResponse {
	return InvitationResponse{
		ID:         inv.ID,
		TeamID:     inv.TeamID,
		TeamName:   inv.TeamName,
		Email:      inv.Email,
		Role:       string(inv.Role),
		ExpiresAt:  formatTime(inv.ExpiresAt),
		AcceptedAt: formatTimePtr(inv.AcceptedAt),
		CreatedAt:  formatTime(inv.CreatedAt),
	}
}

func domainInvitationsToHTTP(invitations []*domain.TeamInvitation) []InvitationResponse {
	result := make([]InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		result = append(result, domainInvitationToHTTP(inv))
	}
	return result
}

func domainAuditLogToHTTP(entry *domain.AuditLog) AuditLogResponse {
	var actorID *string
	if entry.ActorID != nil {
		id := entry.ActorID.String()
		actorID = &id
	}
	return AuditLogResponse{
		ID:         entry.ID,
		ActorID:    actorID,
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		Metadata:   entry.Metadata,
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}

func domainStatsToHTTP(stats *domain.UserStats) StatsResponse {
	return StatsResponse{
		Users:         stats.Users,
		VerifiedUsers: stats.VerifiedUsers,
		MFAUsers:      stats.MFAUsers,
		Teams:         stats.Teams,
	}
}

func paginatedToHTTP[T, R any](page domain.Paginated[T], convert func(T) R) PageResponse[R] {
	items := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return PageResponse[R]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(),
	}
}

func permissionsFromHTTP(values []string) []domain.Permission {
	result := make([]domain.Permission, 0, len(values))
	for _, v := range values {
		result = append(result, domain.Permission(v))
	}
	return result
}
