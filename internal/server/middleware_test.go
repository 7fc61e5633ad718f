package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingSessions struct {
	repo     *MockRepository
	acquired int
}

func (c *countingSessions) factory(context.Context) (Repository, error) {
	c.acquired++
	return c.repo, nil
}

func TestAuthenticate(t *testing.T) {
	tokens, err := auth.NewTokenService(testSecret, "HS256")
	require.NoError(t, err)
	foreign, err := auth.NewTokenService("some-other-key", "HS256")
	require.NoError(t, err)

	issue := func(ts *auth.TokenService, ttl time.Duration) string {
		token, err := ts.Issue("testuser", 1, models.RoleUser, ttl)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name   string
		header string
		want   struct {
			statusCode int
		}
	}{
		{
			name:   "valid token",
			header: "Bearer " + issue(tokens, time.Minute),
			want: struct {
				statusCode int
			}{statusCode: http.StatusOK},
		},
		{
			name:   "scheme is case insensitive",
			header: "bearer " + issue(tokens, time.Minute),
			want: struct {
				statusCode int
			}{statusCode: http.StatusOK},
		},
		{
			name: "missing header",
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
		{
			name:   "wrong scheme",
			header: "Basic dGVzdHVzZXI6dGVzdHBhc3N3b3Jk",
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
		{
			name:   "empty token",
			header: "Bearer ",
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
		{
			name:   "expired token",
			header: "Bearer " + issue(tokens, -time.Minute),
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
		{
			name:   "token signed with another key",
			header: "Bearer " + issue(foreign, time.Minute),
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
		{
			name:   "garbage token",
			header: "Bearer not.a.jwt",
			want: struct {
				statusCode int
			}{statusCode: http.StatusUnauthorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{}
			repo.On("Release").Return()
			repo.On("ListTasks", mock.Anything, int64(1)).Return([]models.Task{}, nil).Maybe()
			sessions := &countingSessions{repo: repo}
			api, _, _ := newTestAPI(t, sessions.factory)

			req := httptest.NewRequest(http.MethodGet, "/todo-list", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(api, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			if tt.want.statusCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				assert.Zero(t, sessions.acquired, "rejected requests must not touch the store")
				return
			}
			assert.JSONEq(t, `[]`, w.Body.String())
			assert.Equal(t, 1, sessions.acquired)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want struct {
			statusCode int
			detail     string
		}
	}{
		{
			name: "admin",
			role: models.RoleAdmin,
			want: struct {
				statusCode int
				detail     string
			}{statusCode: http.StatusOK},
		},
		{
			name: "admin in mixed case",
			role: "Admin",
			want: struct {
				statusCode int
				detail     string
			}{statusCode: http.StatusOK},
		},
		{
			name: "regular user",
			role: models.RoleUser,
			want: struct {
				statusCode int
				detail     string
			}{statusCode: http.StatusForbidden, detail: "User not authorized"},
		},
		{
			name: "no role",
			want: struct {
				statusCode int
				detail     string
			}{statusCode: http.StatusForbidden, detail: "User not authorized"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{}
			repo.On("Release").Return()
			repo.On("ListAllTasks", mock.Anything).Return([]models.Task{{ID: 1, OwnerID: 2}}, nil).Maybe()
			sessions := &countingSessions{repo: repo}
			api, tokens, _ := newTestAPI(t, sessions.factory)
			token, err := tokens.Issue("someone", 1, tt.role, time.Minute)
			require.NoError(t, err)

			w := serve(api, jsonRequest(t, http.MethodGet, "/admin/todos", nil, token))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if tt.want.detail != "" {
				assert.Equal(t, tt.want.detail, detailOf(t, w))
				assert.Zero(t, sessions.acquired)
				return
			}
			assert.Equal(t, 1, sessions.acquired)
			repo.AssertNumberOfCalls(t, "Release", 1)
		})
	}
}

func TestWithSessionReleasesOnEveryPath(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Release").Return()
	api, _, _ := newTestAPI(t, mockSessions(repo))

	router := gin.New()
	router.Use(api.withSession())
	router.GET("/ok", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	router.GET("/fail", func(ctx *gin.Context) { abortWithError(ctx, errors.ErrTaskNotFound) })
	router.GET("/panic", func(ctx *gin.Context) { panic("handler blew up") })

	for _, path := range []string{"/ok", "/fail"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Panics(t, func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	repo.AssertNumberOfCalls(t, "Release", 3)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/test", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, ctx.GetString(requestIDKey))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   struct {
			token string
			ok    bool
		}
	}{
		{header: "Bearer abc", want: struct {
			token string
			ok    bool
		}{token: "abc", ok: true}},
		{header: "BEARER  abc ", want: struct {
			token string
			ok    bool
		}{token: "abc", ok: true}},
		{header: "Bearer"},
		{header: "Token abc"},
		{header: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := bearerToken(tt.header)
			assert.Equal(t, tt.want.ok, ok)
			assert.Equal(t, tt.want.token, token)
		})
	}
}
