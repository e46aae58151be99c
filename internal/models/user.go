package models

import "time"

// User represents an application identity stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Active       bool      `db:"is_active" json:"is_active"`
	RoleID       *string   `db:"role_id" json:"role_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// OwnerID makes a user its own owner for the ownership guard.
func (u *User) OwnerID() string { return u.ID }

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	FirstName string
	LastName  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// CreateUserRequest is the public registration payload.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
}

// UpdateUserRequest carries optional changes. Active and RoleID are honoured for
// administrative principals only.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Password  *string `json:"password" validate:"omitempty,max=72"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Active    *bool   `json:"is_active"`
	RoleID    *string `json:"role_id" validate:"omitempty,uuid"`
}

// MaxPage bounds the page number accepted by list queries.
const MaxPage = 100000

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
