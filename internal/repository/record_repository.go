package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

const recordColumns = `id, title, description, status, user_id, created_at, updated_at`

// RecordRepository provides database access for records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindByID returns a record by identifier.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	var record models.Record
	if err := r.db.GetContext(ctx, &record, `SELECT `+recordColumns+` FROM records WHERE id = $1 LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find record by id: %w", err)
	}
	return &record, nil
}

// List returns records matching filter, newest first, with the total count.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error) {
	baseQuery := `FROM records WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", recordColumns, baseQuery, limit, offset)

	var records []models.Record
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	return records, total, nil
}

// Create inserts a record.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO records (` + recordColumns + `) VALUES (:id, :title, :description, :status, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a record.
func (r *RecordRepository) Update(ctx context.Context, record *models.Record) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE records SET title = :title, description = :description, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return expectAffected(res, "update record")
}

// Delete removes a record.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return expectAffected(res, "delete record")
}
