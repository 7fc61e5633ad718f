package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username, email string) *models.User {
	return &models.User{
		Username:       username,
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: "hash",
		Role:           models.RoleUser,
		IsActive:       true,
	}
}

func TestNewStorage(t *testing.T) {
	s := NewStorage()
	require.NotNil(t, s)

	acquired, err := s.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, acquired)
	acquired.Release()
}

func TestStorageCreateUser(t *testing.T) {
	tests := []struct {
		name  string
		setup []*models.User
		user  *models.User
		want  struct {
			err error
			id  int64
		}
	}{
		{
			name: "first user",
			user: newUser("testuser", "test@example.com"),
			want: struct {
				err error
				id  int64
			}{id: 1},
		},
		{
			name:  "second user gets next id",
			setup: []*models.User{newUser("first", "first@example.com")},
			user:  newUser("second", "second@example.com"),
			want: struct {
				err error
				id  int64
			}{id: 2},
		},
		{
			name:  "duplicate username",
			setup: []*models.User{newUser("testuser", "test@example.com")},
			user:  newUser("testuser", "other@example.com"),
			want: struct {
				err error
				id  int64
			}{err: errors.ErrUserAlreadyExists},
		},
		{
			name:  "duplicate email",
			setup: []*models.User{newUser("testuser", "test@example.com")},
			user:  newUser("another", "test@example.com"),
			want: struct {
				err error
				id  int64
			}{err: errors.ErrUserAlreadyExists},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStorage()
			ctx := context.Background()
			for _, u := range tt.setup {
				require.NoError(t, s.CreateUser(ctx, u))
			}

			err := s.CreateUser(ctx, tt.user)
			if tt.want.err != nil {
				assert.ErrorIs(t, err, tt.want.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.id, tt.user.ID)
		})
	}
}

func TestStorageGetUser(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	user := newUser("testuser", "test@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", byID.Username)

	byName, err := s.GetUserByUsername(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = s.GetUserByID(ctx, 99)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	_, err = s.GetUserByUsername(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestStorageUpdateUserFields(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	user := newUser("testuser", "test@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.UpdatePassword(ctx, user.ID, "newhash"))
	require.NoError(t, s.UpdatePhone(ctx, user.ID, "+11234567890"))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.HashedPassword)
	require.NotNil(t, got.PhoneNumber)
	assert.Equal(t, "+11234567890", *got.PhoneNumber)

	*got.PhoneNumber = "mutated"
	again, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "+11234567890", *again.PhoneNumber, "returned users must not alias stored state")

	assert.ErrorIs(t, s.UpdatePassword(ctx, 99, "hash"), errors.ErrUserNotFound)
	assert.ErrorIs(t, s.UpdatePhone(ctx, 99, "+11234567890"), errors.ErrUserNotFound)
}

func TestStorageTaskOwnership(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	task := &models.Task{Title: "Example title", Description: "Example description", Priority: 1, OwnerID: alice.ID}
	require.NoError(t, s.CreateTask(ctx, task))
	require.NotZero(t, task.ID)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{
			name: "owner reads",
			call: func() error { _, err := s.GetTask(ctx, task.ID, alice.ID); return err },
		},
		{
			name: "stranger reads",
			call: func() error { _, err := s.GetTask(ctx, task.ID, bob.ID); return err },
			want: errors.ErrTaskNotFound,
		},
		{
			name: "stranger updates",
			call: func() error {
				hijack := *task
				hijack.OwnerID = bob.ID
				hijack.Title = "hijacked"
				return s.UpdateTask(ctx, &hijack)
			},
			want: errors.ErrTaskNotFound,
		},
		{
			name: "stranger deletes",
			call: func() error { return s.DeleteTask(ctx, task.ID, bob.ID) },
			want: errors.ErrTaskNotFound,
		},
		{
			name: "owner updates",
			call: func() error {
				updated := *task
				updated.Complete = true
				return s.UpdateTask(ctx, &updated)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			assert.NoError(t, err)
		})
	}

	got, err := s.GetTask(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example title", got.Title)
	assert.True(t, got.Complete)

	bobs, err := s.ListTasks(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, bobs)
	assert.Empty(t, bobs)

	require.NoError(t, s.DeleteTask(ctx, task.ID, alice.ID))
	_, err = s.GetTask(ctx, task.ID, alice.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestStorageCreateTaskRequiresOwner(t *testing.T) {
	s := NewStorage()
	err := s.CreateTask(context.Background(), &models.Task{Title: "title", Description: "description", Priority: 1, OwnerID: 42})
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestStorageAdminOperations(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	for i, owner := range []int64{alice.ID, bob.ID, alice.ID} {
		task := &models.Task{Title: fmt.Sprintf("task %d", i), Description: "description", Priority: 1, OwnerID: owner}
		require.NoError(t, s.CreateTask(ctx, task))
	}

	all, err := s.ListAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(3), all[2].ID)

	aliceTasks, err := s.ListTasks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceTasks, 2)

	require.NoError(t, s.DeleteAnyTask(ctx, 2))
	assert.ErrorIs(t, s.DeleteAnyTask(ctx, 2), errors.ErrTaskNotFound)
}

func TestStorageConcurrentAccess(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	owner := newUser("owner", "owner@example.com")
	require.NoError(t, s.CreateUser(ctx, owner))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := &models.Task{Title: fmt.Sprintf("task %d", i), Description: "description", Priority: 1, OwnerID: owner.ID}
			assert.NoError(t, s.CreateTask(ctx, task))
			_, err := s.ListTasks(ctx, owner.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	tasks, err := s.ListTasks(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 50)
}
