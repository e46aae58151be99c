package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type failingAuditRepo struct{}

func (failingAuditRepo) Create(context.Context, *models.AuditLog) error {
	return errors.New("audit table locked")
}

func (failingAuditRepo) List(context.Context, models.AuditFilter) ([]models.AuditLog, int, error) {
	return nil, 0, errors.New("audit table locked")
}

func statusPtr(s models.RecordStatus) *models.RecordStatus { return &s }

func TestRecordLifecycleAuditsEveryMutation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))
	ctx := context.Background()

	record, err := env.recordSvc.Create(ctx, owner, models.CreateRecordRequest{Title: "  Ship it  "})
	require.NoError(t, err)
	assert.Equal(t, "Ship it", record.Title)
	assert.Equal(t, models.RecordStatusOpen, record.Status)
	assert.Equal(t, owner.UserID, record.UserID)

	err = env.recordSvc.Delete(ctx, owner, record.ID)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))

	_, err = env.recordSvc.Update(ctx, owner, record.ID, models.UpdateRecordRequest{Status: statusPtr(models.RecordStatusDone)})
	require.NoError(t, err)
	require.NoError(t, env.recordSvc.Delete(ctx, owner, record.ID))

	_, err = env.recordSvc.Get(ctx, owner, record.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.Kind(err))

	deletes := 0
	var actions []string
	for _, l := range env.audits.All() {
		assert.Equal(t, owner.UserID, l.UserID)
		assert.Equal(t, models.AuditEntityRecord, l.Entity)
		require.NotNil(t, l.EntityID)
		assert.Equal(t, record.ID, *l.EntityID)
		actions = append(actions, l.Action)
		if l.Action == models.AuditActionDelete {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)
	assert.ElementsMatch(t, []string{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete}, actions)
}

func TestRecordOwnershipGuard(t *testing.T) {
	env := newTestEnv(t)
	owner := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))
	other := env.principal(t, env.seedUser(t, "bob@example.com", "password123", "user"))
	admin := env.principal(t, env.seedUser(t, "root@example.com", "password123", "admin"))
	ctx := context.Background()

	record, err := env.recordSvc.Create(ctx, owner, models.CreateRecordRequest{Title: "mine"})
	require.NoError(t, err)

	_, err = env.recordSvc.Get(ctx, other, record.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))
	title := "stolen"
	_, err = env.recordSvc.Update(ctx, other, record.ID, models.UpdateRecordRequest{Title: &title})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))

	got, err := env.recordSvc.Get(ctx, admin, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	_, err = env.recordSvc.Get(ctx, owner, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.Kind(err))
}

func TestRecordListScopesToOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))
	other := env.principal(t, env.seedUser(t, "bob@example.com", "password123", "user"))
	admin := env.principal(t, env.seedUser(t, "root@example.com", "password123", "admin"))
	ctx := context.Background()

	for _, p := range []*models.Principal{owner, owner, other} {
		_, err := env.recordSvc.Create(ctx, p, models.CreateRecordRequest{Title: "r"})
		require.NoError(t, err)
	}

	records, page, err := env.recordSvc.List(ctx, owner, models.RecordFilter{OwnerID: other.UserID})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, page.TotalCount)

	records, _, err = env.recordSvc.List(ctx, admin, models.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, _, err = env.recordSvc.List(ctx, owner, models.RecordFilter{Status: "ARCHIVED"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))
}

func TestRecordValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))
	ctx := context.Background()

	_, err := env.recordSvc.Create(ctx, owner, models.CreateRecordRequest{Title: "   "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))

	record, err := env.recordSvc.Create(ctx, owner, models.CreateRecordRequest{Title: "ok"})
	require.NoError(t, err)
	_, err = env.recordSvc.Update(ctx, owner, record.ID, models.UpdateRecordRequest{Status: statusPtr("ARCHIVED")})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))

	blank := "    "
	_, err = env.recordSvc.Update(ctx, owner, record.ID, models.UpdateRecordRequest{Title: &blank})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))
	stored, err := env.recordSvc.Get(ctx, owner, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "ok", stored.Title)

	padded := "  renamed  "
	updated, err := env.recordSvc.Update(ctx, owner, record.ID, models.UpdateRecordRequest{Title: &padded})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestAuditFailureKeepsMutation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))
	svc := NewRecordService(env.records, NewAuditService(failingAuditRepo{}, nil, nil), nil, nil)
	ctx := context.Background()

	record, err := svc.Create(ctx, owner, models.CreateRecordRequest{Title: "unaudited"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuditFailed.Code, appErrors.Kind(err))
	require.NotNil(t, record)

	stored, err := env.records.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "unaudited", stored.Title)
}
