package models

import (
	"time"

	"github.com/lib/pq"
)

// Role is a named bundle of permission keys.
type Role struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Permissions      pq.StringArray `db:"permissions" json:"permissions"`
	IsAdministrative bool           `db:"is_administrative" json:"is_administrative"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateRoleRequest payload for creating a role.
type CreateRoleRequest struct {
	Name             string   `json:"name" validate:"required,min=2,max=64"`
	Permissions      []string `json:"permissions" validate:"dive,required"`
	IsAdministrative bool     `json:"is_administrative"`
}

// UpdateRoleRequest payload for updating a role. Nil fields are left unchanged.
type UpdateRoleRequest struct {
	Name             *string   `json:"name" validate:"omitempty,min=2,max=64"`
	Permissions      *[]string `json:"permissions" validate:"omitempty,dive,required"`
	IsAdministrative *bool     `json:"is_administrative"`
}

// RoleInfo describes the caller's own role.
type RoleInfo struct {
	RoleID           string   `json:"role_id"`
	Name             string   `json:"name"`
	IsAdministrative bool     `json:"is_administrative"`
	Permissions      []string `json:"permissions"`
}
