package server

import (
	"log/slog"
	"strings"
	"time"

	"todoapp/internal/auth"
	domainerrors "todoapp/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	principalKey = "principal"
	sessionKey   = "session"
	requestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

// RequestLogger tags every request with an id and logs its outcome.
// Headers and bodies are never logged.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(requestIDKey, requestID)
		ctx.Header(requestIDHeader, requestID)

		ctx.Next()

		slog.Info("request",
			"request_id", requestID,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// authenticate resolves the bearer token into a Principal. Every rejection
// reaches the client as the same 401; the reason is only logged.
func (api *TodoAPI) authenticate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			abortWithError(ctx, domainerrors.ErrUnauthorized)
			return
		}

		principal, err := api.tokens.Verify(raw)
		if err != nil {
			slog.Info("token rejected", "request_id", ctx.GetString(requestIDKey), "reason", err)
			abortWithError(ctx, domainerrors.ErrUnauthorized)
			return
		}

		ctx.Set(principalKey, principal)
		ctx.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := auth.RequireAdmin(principalFrom(ctx)); err != nil {
			abortWithError(ctx, err)
			return
		}
		ctx.Next()
	}
}

// withSession acquires a Repository for the rest of the chain and releases
// it once the handlers return, whatever the outcome.
func (api *TodoAPI) withSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		repo, err := api.sessions(ctx.Request.Context())
		if err != nil {
			abortWithError(ctx, err)
			return
		}
		defer repo.Release()

		ctx.Set(sessionKey, repo)
		ctx.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// principalFrom returns the zero Principal on routes without authenticate.
func principalFrom(ctx *gin.Context) auth.Principal {
	v, _ := ctx.Get(principalKey)
	p, _ := v.(auth.Principal)
	return p
}

func sessionFrom(ctx *gin.Context) Repository {
	return ctx.MustGet(sessionKey).(Repository)
}
