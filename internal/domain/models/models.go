package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. HashedPassword never leaves the process.
type User struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	HashedPassword string  `json:"-"`
	Role           string  `json:"role"`
	IsActive       bool    `json:"is_active"`
	PhoneNumber    *string `json:"phone_number"`
}

type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required,role"`
}

// LoginRequest is bound from an application/x-www-form-urlencoded body.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type TaskRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"required,min=3,max=100"`
	Priority    int    `json:"priority" validate:"required,min=1,max=5"`
	Complete    *bool  `json:"complete" validate:"required"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=2,max=72"`
}

type PhoneChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=6"`
	NewPhoneNumber  string `json:"new_phone_number" validate:"required,min=10,max=15"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
