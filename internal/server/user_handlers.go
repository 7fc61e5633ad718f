package server

import (
	"net/http"

	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (api *TodoAPI) getProfile(ctx *gin.Context) {
	user, err := sessionFrom(ctx).GetUserByID(ctx.Request.Context(), principalFrom(ctx).UserID())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (api *TodoAPI) changePassword(ctx *gin.Context) {
	var req models.PasswordChangeRequest
	if err := api.bind(ctx, binding.JSON, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	repo := sessionFrom(ctx)
	user, err := api.reauthenticate(ctx, repo, req.CurrentPassword)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	hash, err := api.hasher.Hash(req.NewPassword)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	if err := repo.UpdatePassword(ctx.Request.Context(), user.ID, hash); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (api *TodoAPI) changePhone(ctx *gin.Context) {
	var req models.PhoneChangeRequest
	if err := api.bind(ctx, binding.JSON, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	repo := sessionFrom(ctx)
	user, err := api.reauthenticate(ctx, repo, req.CurrentPassword)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	phone, err := normalizePhone(req.NewPhoneNumber, api.phoneRegion)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	if err := repo.UpdatePhone(ctx.Request.Context(), user.ID, phone); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// reauthenticate loads the caller's record and checks the current password
// against it before a sensitive change.
func (api *TodoAPI) reauthenticate(ctx *gin.Context, repo Repository, currentPassword string) (*models.User, error) {
	user, err := repo.GetUserByID(ctx.Request.Context(), principalFrom(ctx).UserID())
	if err != nil {
		return nil, err
	}
	if !api.hasher.Verify(currentPassword, user.HashedPassword) {
		return nil, domainerrors.ErrIncorrectPassword
	}
	return user, nil
}
