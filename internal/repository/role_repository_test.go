package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

func TestFindRoleByName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "permissions", "is_administrative", "created_at", "updated_at"}).
		AddRow("r1", "admin", []byte("{record_view,role_view}"), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM roles WHERE name = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	role, err := repo.FindByName(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, role.IsAdministrative)
	assert.Equal(t, pq.StringArray{"record_view", "role_view"}, role.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoleDuplicateName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectExec("INSERT INTO roles").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Role{Name: "user"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectExec("UPDATE roles SET name").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Role{ID: "r1", Name: "editor", Permissions: pq.StringArray{"record_view"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
