package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/security"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	maxSlugLength        = 60
)

// validatePassword переводит ошибки длины пароля в VALIDATION по полю
func validatePassword(field, password string) error {
	if err := security.ValidatePassword(password); err != nil {
		return domain.NewValidationError(field, err.Error())
	}
	return nil
}

// checkPassword сверяет пароль с хэшем пользователя; без пароля всегда false
func checkPassword(hasher *security.PasswordHasher, user *domain.User, password string) (bool, error) {
	if !user.HasPassword() || password == "" {
		return false, nil
	}
	ok, err := hasher.Verify(user.PasswordHash, password)
	if err != nil {
		if errors.Is(err, security.ErrInvalidHash) || errors.Is(err, security.ErrIncompatibleVersion) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
