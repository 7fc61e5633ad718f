package storage

import (
	"context"
	"sort"
	"sync"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
)

// Storage keeps users and tasks in process memory. It enforces the same
// uniqueness and ownership rules as the PostgreSQL schema.
type Storage struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	tasks      map[int64]models.Task
	nextUserID int64
	nextTaskID int64
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[int64]models.User),
		tasks: make(map[int64]models.Task),
	}
}

// Acquire hands out the storage itself; there is no per-request resource.
func (s *Storage) Acquire(_ context.Context) (*Storage, error) {
	return s, nil
}

func (s *Storage) Release() {}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errors.ErrUserAlreadyExists
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Storage) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	u := cloneUser(user)
	return &u, nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := cloneUser(user)
			return &u, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return errors.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	s.users[id] = user
	return nil
}

func (s *Storage) UpdatePhone(_ context.Context, id int64, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return errors.ErrUserNotFound
	}
	user.PhoneNumber = &phone
	s.users[id] = user
	return nil
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[task.OwnerID]; !exists {
		return errors.ErrUserNotFound
	}
	s.nextTaskID++
	task.ID = s.nextTaskID
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) GetTask(_ context.Context, id, ownerID int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists || task.OwnerID != ownerID {
		return nil, errors.ErrTaskNotFound
	}
	return &task, nil
}

func (s *Storage) ListTasks(_ context.Context, ownerID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, t)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *Storage) ListAllTasks(_ context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *Storage) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.tasks[task.ID]
	if !exists || existing.OwnerID != task.OwnerID {
		return errors.ErrTaskNotFound
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) DeleteTask(_ context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists || task.OwnerID != ownerID {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) DeleteAnyTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func cloneUser(u models.User) models.User {
	if u.PhoneNumber != nil {
		phone := *u.PhoneNumber
		u.PhoneNumber = &phone
	}
	return u
}

func sortTasks(tasks []models.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}
