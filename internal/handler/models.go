package handler

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User        *UserResponse `json:"user,omitempty"`
	MFARequired bool          `json:"mfa_required"`
}

type CodeRequest struct {
	Code string `json:"code"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RoleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type UserResponse struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	EmailVerified bool          `json:"email_verified"`
	HasPassword   bool          `json:"has_password"`
	IsActive      bool          `json:"is_active"`
	IsSuperuser   bool          `json:"is_superuser"`
	MFAEnabled    bool          `json:"mfa_enabled"`
	Role          *RoleResponse `json:"role"`
	Permissions   []string      `json:"permissions"`
	Tags          []TagResponse `json:"tags"`
	LastLoginAt   *string       `json:"last_login_at"`
	CreatedAt     string        `json:"created_at"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}

type MFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

type OAuthAccountResponse struct {
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type TeamRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type TeamResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	CreatedBy   *string `json:"created_by,omitempty"`
	MemberCount int     `json:"member_count"`
	CreatedAt   string  `json:"created_at"`
}

type MembershipResponse struct {
	Team TeamResponse `json:"team"`
	Role string       `json:"role"`
}

type TeamMemberResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

type MemberRoleRequest struct {
	Role string `json:"role"`
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InvitationResponse struct {
	ID         int64   `json:"id"`
	TeamID     int64   `json:"team_id"`
	TeamName   string  `json:"team_name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	ExpiresAt  string  `json:"expires_at"`
	AcceptedAt *string `json:"accepted_at"`
	CreatedAt  string  `json:"created_at"`
}

type UpdateUserRequest struct {
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	RoleID      *int64 `json:"role_id"`
}

type UserTagsRequest struct {
	TagIDs []int64 `json:"tag_ids"`
}

type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type AuditLogResponse struct {
	ID         int64          `json:"id"`
	ActorID    *string        `json:"actor_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  string         `json:"created_at"`
}

type StatsResponse struct {
	Users         int `json:"users"`
	VerifiedUsers int `json:"verified_users"`
	MFAUsers      int `json:"mfa_users"`
	Teams         int `json:"teams"`
}

type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}
