package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"todoapp/internal/auth"
	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

// Repository is one request's handle on the credential and task store.
// Release must be called exactly once when the request is done with it.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	UpdatePhone(ctx context.Context, id int64, phone string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id, ownerID int64) (*models.Task, error)
	ListTasks(ctx context.Context, ownerID int64) ([]models.Task, error)
	ListAllTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id, ownerID int64) error
	DeleteAnyTask(ctx context.Context, id int64) error

	Release()
}

// SessionFactory opens a Repository scoped to a single request.
type SessionFactory func(ctx context.Context) (Repository, error)

// Sessions adapts a store's Acquire method to a SessionFactory.
func Sessions[R Repository](acquire func(context.Context) (R, error)) SessionFactory {
	return func(ctx context.Context) (Repository, error) {
		repo, err := acquire(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenService interface {
	Issue(username string, userID int64, role string, ttl time.Duration) (string, error)
	Verify(token string) (auth.Principal, error)
}

const loginTokenTTL = 20 * time.Minute

type TodoAPI struct {
	httpSrv     *http.Server
	sessions    SessionFactory
	hasher      PasswordHasher
	tokens      TokenService
	valid       *validator.Validate
	phoneRegion string
	// decoyDigest is checked when a login names an unknown user, so that
	// path costs one bcrypt comparison like every other rejection.
	decoyDigest string
}

func NewTodoAPI(cfg *Config, sessions SessionFactory, hasher PasswordHasher, tokens TokenService) *TodoAPI {
	if sessions == nil || hasher == nil || tokens == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	api := TodoAPI{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		valid:       newValidator(),
		phoneRegion: cfg.PhoneRegion,
	}
	decoy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		slog.Warn("failed to prepare decoy password digest", "err", err)
	}
	api.decoyDigest = decoy
	api.configRoutes()

	return &api
}

func (api *TodoAPI) Start() error {
	if api.httpSrv == nil {
		return domainerrors.ErrInternalServer
	}
	if err := api.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (api *TodoAPI) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

func (api *TodoAPI) configRoutes() {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), RequestLogger(), GzipRequestDecompress(), GzipResponseCompress())

	router.NoRoute(func(ctx *gin.Context) {
		abortWithError(ctx, domainerrors.ErrNotFound)
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{Detail: "Method Not Allowed"})
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth", api.withSession())
	{
		authGroup.POST("/", api.register)
		authGroup.POST("/token", api.login)
	}

	todos := router.Group("/todo-list", api.authenticate(), api.withSession())
	{
		todos.GET("", api.listTodos)
		todos.GET("/:id", api.getTodo)
		todos.POST("", api.createTodo)
		todos.PUT("/:id", api.updateTodo)
		todos.DELETE("/:id", api.deleteTodo)
	}

	admin := router.Group("/admin", api.authenticate(), requireAdmin(), api.withSession())
	{
		admin.GET("/todos", api.listAllTodos)
		admin.DELETE("/todos/:id", api.deleteAnyTodo)
	}

	users := router.Group("/users", api.authenticate(), api.withSession())
	{
		users.GET("/", api.getProfile)
		users.PUT("/password", api.changePassword)
		users.PUT("/phone", api.changePhone)
	}

	api.httpSrv.Handler = router
}
