package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions.
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionLogin   = "LOGIN"
	AuditActionRefresh = "REFRESH"
	AuditActionLogout  = "LOGOUT"
)

// Audited entity types.
const (
	AuditEntityRecord  = "record"
	AuditEntityRole    = "role"
	AuditEntityUser    = "user"
	AuditEntitySession = "session"
)

// AuditLog represents an immutable audit trail row.
type AuditLog struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Action    string         `db:"action" json:"action"`
	Entity    string         `db:"entity" json:"entity"`
	EntityID  *string        `db:"entity_id" json:"entity_id,omitempty"`
	Detail    types.JSONText `db:"detail" json:"detail,omitempty"`
	RequestID string         `db:"request_id" json:"request_id,omitempty"`
	IPAddress string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// AuditEntry is the input of the audit recorder.
type AuditEntry struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Detail   interface{}
	Meta     RequestMeta
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	ActorID  string
	Entity   string
	Action   string
	Page     int
	PageSize int
}
