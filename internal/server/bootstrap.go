package server

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
)

// EnsureAdmin creates the configured administrator if no user with that
// name exists yet. An empty username disables it. An existing account is
// left untouched, whatever its role or password.
func EnsureAdmin(ctx context.Context, sessions SessionFactory, hasher PasswordHasher, admin AdminConfig) error {
	if admin.Username == "" {
		return nil
	}

	repo, err := sessions(ctx)
	if err != nil {
		return err
	}
	defer repo.Release()

	_, err = repo.GetUserByUsername(ctx, admin.Username)
	if err == nil {
		slog.Info("admin account already present", "username", admin.Username)
		return nil
	}
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		return err
	}

	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return err
	}
	user := models.User{
		Username:       admin.Username,
		Email:          admin.Email,
		FirstName:      "Admin",
		LastName:       "Admin",
		HashedPassword: hash,
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	if err := repo.CreateUser(ctx, &user); err != nil {
		return err
	}

	slog.Info("admin account created", "username", admin.Username, "user_id", user.ID)
	return nil
}
