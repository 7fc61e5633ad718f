package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	queryTimeout = 15 * time.Second

	uniqueViolation = "23505"
)

const (
	prepCreateUser        = `INSERT INTO users (username, email, first_name, last_name, hashed_password, role, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	prepGetUserByID       = `SELECT id, username, email, first_name, last_name, hashed_password, role, is_active, phone_number FROM users WHERE id = $1`
	prepGetUserByUsername = `SELECT id, username, email, first_name, last_name, hashed_password, role, is_active, phone_number FROM users WHERE username = $1`
	prepUpdatePassword    = `UPDATE users SET hashed_password = $1 WHERE id = $2`
	prepUpdatePhone       = `UPDATE users SET phone_number = $1 WHERE id = $2`

	prepCreateTask    = `INSERT INTO todos (title, description, priority, complete, owner_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	prepGetTask       = `SELECT id, title, description, priority, complete, owner_id FROM todos WHERE id = $1 AND owner_id = $2`
	prepListTasks     = `SELECT id, title, description, priority, complete, owner_id FROM todos WHERE owner_id = $1 ORDER BY id`
	prepListAllTasks  = `SELECT id, title, description, priority, complete, owner_id FROM todos ORDER BY id`
	prepUpdateTask    = `UPDATE todos SET title = $1, description = $2, priority = $3, complete = $4 WHERE id = $5 AND owner_id = $6`
	prepDeleteTask    = `DELETE FROM todos WHERE id = $1 AND owner_id = $2`
	prepDeleteAnyTask = `DELETE FROM todos WHERE id = $1`
)

// Storage owns the connection pool. Request handlers never use it directly:
// they Acquire a Session and Release it when the request ends.
type Storage struct {
	db *sql.DB
}

func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		slog.Error("open database", "err", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		slog.Error("ping database", "err", err)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
	}

	slog.Info("database connection established")
	return NewStorageFromDB(db), nil
}

func NewStorageFromDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Acquire reserves one pooled connection for the lifetime of a request.
func (s *Storage) Acquire(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		slog.Error("acquire database connection", "err", err)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
	}
	return &Session{conn: conn}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Session is a request-scoped handle over a single connection.
type Session struct {
	conn *sql.Conn
}

// Release returns the connection to the pool. It is safe to call once per Acquire.
func (s *Session) Release() {
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		slog.Error("release database connection", "err", err)
	}
}

func (s *Session) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, prepCreateUser,
		user.Username, user.Email, user.FirstName, user.LastName, user.HashedPassword, user.Role, user.IsActive)
	if err := row.Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			slog.Warn("user already exists", "username", user.Username)
			return domainerrors.ErrUserAlreadyExists
		}
		slog.Error("create user", "err", err)
		return err
	}
	slog.Debug("user created", "user_id", user.ID)
	return nil
}

func (s *Session) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(s.conn.QueryRowContext(ctx, prepGetUserByID, id))
}

func (s *Session) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(s.conn.QueryRowContext(ctx, prepGetUserByUsername, username))
}

func (s *Session) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return s.execUser(ctx, prepUpdatePassword, hashedPassword, id)
}

func (s *Session) UpdatePhone(ctx context.Context, id int64, phone string) error {
	return s.execUser(ctx, prepUpdatePhone, phone, id)
}

func (s *Session) execUser(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("update user", "err", err)
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (s *Session) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, prepCreateTask,
		task.Title, task.Description, task.Priority, task.Complete, task.OwnerID)
	if err := row.Scan(&task.ID); err != nil {
		slog.Error("create task", "err", err)
		return err
	}
	slog.Debug("task created", "task_id", task.ID, "owner_id", task.OwnerID)
	return nil
}

func (s *Session) GetTask(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task := &models.Task{}
	err := s.conn.QueryRowContext(ctx, prepGetTask, id, ownerID).
		Scan(&task.ID, &task.Title, &task.Description, &task.Priority, &task.Complete, &task.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrTaskNotFound
		}
		slog.Error("get task", "err", err)
		return nil, err
	}
	return task, nil
}

func (s *Session) ListTasks(ctx context.Context, ownerID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, prepListTasks, ownerID)
}

func (s *Session) ListAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, prepListAllTasks)
}

func (s *Session) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("list tasks", "err", err)
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Priority, &task.Complete, &task.OwnerID); err != nil {
			slog.Error("scan task", "err", err)
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Session) UpdateTask(ctx context.Context, task *models.Task) error {
	return s.execTask(ctx, prepUpdateTask,
		task.Title, task.Description, task.Priority, task.Complete, task.ID, task.OwnerID)
}

func (s *Session) DeleteTask(ctx context.Context, id, ownerID int64) error {
	return s.execTask(ctx, prepDeleteTask, id, ownerID)
}

func (s *Session) DeleteAnyTask(ctx context.Context, id int64) error {
	return s.execTask(ctx, prepDeleteAnyTask, id)
}

func (s *Session) execTask(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("write task", "err", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.ErrTaskNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var phone sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.HashedPassword, &user.Role, &user.IsActive, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrUserNotFound
		}
		slog.Error("get user", "err", err)
		return nil, err
	}
	if phone.Valid {
		user.PhoneNumber = &phone.String
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
