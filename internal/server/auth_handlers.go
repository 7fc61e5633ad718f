package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (api *TodoAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := api.bind(ctx, binding.JSON, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	hash, err := api.hasher.Hash(req.Password)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	user := models.User{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		HashedPassword: hash,
		Role:           strings.ToLower(req.Role),
		IsActive:       true,
	}
	if err := sessionFrom(ctx).CreateUser(ctx.Request.Context(), &user); err != nil {
		abortWithError(ctx, err)
		return
	}

	slog.Info("user registered", "request_id", ctx.GetString(requestIDKey), "user_id", user.ID, "role", user.Role)
	ctx.Status(http.StatusCreated)
}

// login exchanges form credentials for a bearer token. Unknown users,
// inactive users and wrong passwords are indistinguishable to the caller.
func (api *TodoAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := api.bind(ctx, binding.Form, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	user, err := sessionFrom(ctx).GetUserByUsername(ctx.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			api.hasher.Verify(req.Password, api.decoyDigest)
			err = domainerrors.ErrInvalidCredentials
		}
		abortWithError(ctx, err)
		return
	}
	if matched := api.hasher.Verify(req.Password, user.HashedPassword); !matched || !user.IsActive {
		abortWithError(ctx, domainerrors.ErrInvalidCredentials)
		return
	}

	token, err := api.tokens.Issue(user.Username, user.ID, user.Role, loginTokenTTL)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}
