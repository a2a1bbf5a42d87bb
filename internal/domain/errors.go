package domain

import "fmt"

type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Это позволяет использовать errors.Is()
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMFARequired        = "MFA_REQUIRED"
	CodeInvalidMFACode     = "INVALID_MFA_CODE"
	CodeForbidden          = "FORBIDDEN"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"
	CodeNotFound           = "NOT_FOUND"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeTeamSlugTaken      = "TEAM_SLUG_TAKEN"
	CodeAlreadyMember      = "ALREADY_MEMBER"
	CodeRoleExists         = "ROLE_EXISTS"
	CodeTagExists          = "TAG_EXISTS"
	CodeInvitationPending  = "INVITATION_PENDING"
	CodeMFAAlreadyEnabled  = "MFA_ALREADY_ENABLED"
	CodeMFANotEnabled      = "MFA_NOT_ENABLED"
	CodeLastOwner          = "LAST_OWNER"
	CodeOAuthLinked        = "OAUTH_ACCOUNT_LINKED"
	CodeLastLoginMethod    = "LAST_LOGIN_METHOD"
	CodeValidation         = "VALIDATION"
	CodeBadRequest         = "BAD_REQUEST"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeRateLimited        = "RATE_LIMITED"
)

var (
	// ErrUnauthorized - нет активной сессии
	ErrUnauthorized = &DomainError{Code: CodeUnauthorized, Message: "authentication required"}

	// ErrInvalidCredentials - неверный email или пароль
	ErrInvalidCredentials = &DomainError{Code: CodeInvalidCredentials, Message: "invalid email or password"}

	// ErrMFARequired - нужен второй фактор
	ErrMFARequired = &DomainError{Code: CodeMFARequired, Message: "multi-factor authentication required"}

	// ErrInvalidMFACode - неверный TOTP или резервный код
	ErrInvalidMFACode = &DomainError{Code: CodeInvalidMFACode, Message: "invalid authentication code"}

	// ErrForbidden - недостаточно прав
	ErrForbidden = &DomainError{Code: CodeForbidden, Message: "permission denied"}

	ErrEmailNotVerified = &DomainError{Code: CodeEmailNotVerified, Message: "email address is not verified"}

	ErrAccountDisabled = &DomainError{Code: CodeAccountDisabled, Message: "account is disabled"}

	// ErrNotFound - ресурс не найден
	ErrNotFound = &DomainError{Code: CodeNotFound, Message: "resource not found"}

	ErrEmailTaken = &DomainError{Code: CodeEmailTaken, Message: "email is already registered"}

	ErrTeamSlugTaken = &DomainError{Code: CodeTeamSlugTaken, Message: "team slug is already taken"}

	ErrAlreadyMember = &DomainError{Code: CodeAlreadyMember, Message: "user is already a member of this team"}

	ErrRoleExists = &DomainError{Code: CodeRoleExists, Message: "role name already exists"}

	ErrTagExists = &DomainError{Code: CodeTagExists, Message: "tag already exists"}

	ErrInvitationPending = &DomainError{Code: CodeInvitationPending, Message: "an invitation for this email is already pending"}

	ErrMFAAlreadyEnabled = &DomainError{Code: CodeMFAAlreadyEnabled, Message: "multi-factor authentication is already enabled"}

	ErrMFANotEnabled = &DomainError{Code: CodeMFANotEnabled, Message: "multi-factor authentication is not enabled"}

	// ErrLastOwner - в команде должен остаться хотя бы один владелец
	ErrLastOwner = &DomainError{Code: CodeLastOwner, Message: "team must keep at least one owner"}

	ErrOAuthLinked = &DomainError{Code: CodeOAuthLinked, Message: "this provider account is linked to another user"}

	ErrLastLoginMethod = &DomainError{Code: CodeLastLoginMethod, Message: "cannot remove the last login method"}

	ErrBadRequest = &DomainError{Code: CodeBadRequest, Message: "bad request"}

	ErrTokenInvalid = &DomainError{Code: CodeTokenInvalid, Message: "token is invalid or has already been used"}

	ErrTokenExpired = &DomainError{Code: CodeTokenExpired, Message: "token has expired"}

	ErrRateLimited = &DomainError{Code: CodeRateLimited, Message: "too many requests"}

	ErrValidation = &DomainError{Code: CodeValidation, Message: "validation failed"}
)

// NewNotFoundError создает ошибку NOT_FOUND с дополнительным контекстом
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError создает ошибку BAD_REQUEST с сообщением
func NewBadRequestError(message string) *DomainError {
	return &DomainError{Code: CodeBadRequest, Message: message}
}
