package domain

import (
	"net/mail"
	"sort"
	"strings"
)

// ValidationErrors собирает ошибки по полям
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, message string) {
	if _, exists := v[field]; !exists {
		v[field] = message
	}
}

func (v ValidationErrors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
	}
}

func (v ValidationErrors) MaxLength(field, value string, max int) {
	if len([]rune(value)) > max {
		v.Add(field, field+" is too long")
	}
}

func (v ValidationErrors) Email(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
		return
	}
	if !IsValidEmail(value) {
		v.Add(field, field+" must be a valid email address")
	}
}

// Err возвращает *DomainError с кодом VALIDATION или nil
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &DomainError{
		Code:    CodeValidation,
		Message: v[keys[0]],
		Fields:  map[string]string(v),
	}
}

func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func IsValidEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == strings.TrimSpace(value) && strings.Contains(addr.Address, ".")
}

func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
