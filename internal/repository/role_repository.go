package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

const roleColumns = `id, name, permissions, is_administrative, created_at, updated_at`

// RoleRepository provides database access for roles.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a role repository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByID returns a role by identifier.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	return r.findOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1 LIMIT 1`, id, "find role by id")
}

// FindByName returns a role by its unique name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	return r.findOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1 LIMIT 1`, name, "find role by name")
}

func (r *RoleRepository) findOne(ctx context.Context, query, arg, op string) (*models.Role, error) {
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &role, nil
}

// List returns every role ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, `SELECT `+roleColumns+` FROM roles ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Create inserts a role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	const query = `INSERT INTO roles (id, name, permissions, is_administrative, created_at, updated_at) VALUES (:id, :name, :permissions, :is_administrative, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a role.
func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()
	const query = `UPDATE roles SET name = :name, permissions = :permissions, is_administrative = :is_administrative, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update role: %w", err)
	}
	return expectAffected(res, "update role")
}

// Delete removes a role. Users referencing it lose their role link.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return expectAffected(res, "delete role")
}
