package auth

import (
	"strings"

	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
)

// IsAdmin compares role against "admin" ignoring case.
func IsAdmin(role string) bool {
	return strings.EqualFold(role, models.RoleAdmin)
}

func RequirePrincipal(p Principal) error {
	if p.IsZero() {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

// RequireAdmin checks authentication first, then role.
func RequireAdmin(p Principal) error {
	if err := RequirePrincipal(p); err != nil {
		return err
	}
	if !IsAdmin(p.role) {
		return domainerrors.ErrForbidden
	}
	return nil
}

// CheckOwnership rejects access to a task owned by someone else with
// ErrTaskNotFound so that the task's existence is not revealed.
func CheckOwnership(p Principal, ownerID int64) error {
	if err := RequirePrincipal(p); err != nil {
		return err
	}
	if p.userID != ownerID {
		return domainerrors.ErrTaskNotFound
	}
	return nil
}
