package models

import "time"

// RecordStatus is the lifecycle state of a record.
type RecordStatus string

const (
	RecordStatusOpen       RecordStatus = "OPEN"
	RecordStatusInProgress RecordStatus = "IN_PROGRESS"
	RecordStatusDone       RecordStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordStatusOpen, RecordStatusInProgress, RecordStatusDone:
		return true
	}
	return false
}

// Record is a tracked item owned by the identity that created it.
type Record struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      RecordStatus `db:"status" json:"status"`
	UserID      string       `db:"user_id" json:"user_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// OwnerID implements Owned.
func (r *Record) OwnerID() string { return r.UserID }

// RecordFilter narrows record listings. An empty OwnerID lists every owner.
type RecordFilter struct {
	OwnerID  string
	Status   RecordStatus
	Page     int
	PageSize int
}

// CreateRecordRequest payload for creating a record.
type CreateRecordRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// UpdateRecordRequest payload for updating a record.
type UpdateRecordRequest struct {
	Title       *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string       `json:"description" validate:"omitempty,max=2000"`
	Status      *RecordStatus `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE"`
}
