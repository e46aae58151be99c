package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

func TestRoleCreateNormalizesPermissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.principal(t, env.seedUser(t, "root@example.com", "password123", "admin"))

	role, err := env.roleSvc.Create(context.Background(), admin, models.CreateRoleRequest{
		Name:        " auditor ",
		Permissions: []string{models.PrivilegeAuditView, models.PrivilegeRecordView, models.PrivilegeAuditView},
	})
	require.NoError(t, err)
	assert.Equal(t, "auditor", role.Name)
	assert.Equal(t, []string{models.PrivilegeAuditView, models.PrivilegeRecordView}, []string(role.Permissions))
	assert.False(t, role.IsAdministrative)
}

func TestRoleRejectsUnknownPermissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.principal(t, env.seedUser(t, "root@example.com", "password123", "admin"))
	ctx := context.Background()

	_, err := env.roleSvc.Create(ctx, admin, models.CreateRoleRequest{Name: "broken", Permissions: []string{"record_view", "launch_missiles"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err))
	assert.Contains(t, appErrors.FromError(err).Message, "launch_missiles")

	userRole := env.role(t, "user")
	perms := []string{"Record_View"}
	_, err = env.roleSvc.Update(ctx, admin, userRole.ID, models.UpdateRoleRequest{Permissions: &perms})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.Kind(err), "keys are matched literally")
}

func TestRoleAdministrativeFlagRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	editor := &models.Principal{UserID: "editor", Permissions: models.NewPermissionSet(models.PrivilegeRoleCreate, models.PrivilegeRoleUpdate)}
	ctx := context.Background()

	_, err := env.roleSvc.Create(ctx, editor, models.CreateRoleRequest{Name: "super", IsAdministrative: true})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))

	yes := true
	_, err = env.roleSvc.Update(ctx, editor, env.role(t, "user").ID, models.UpdateRoleRequest{IsAdministrative: &yes})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))
}

func TestRoleConflictsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.principal(t, env.seedUser(t, "root@example.com", "password123", "admin"))
	ctx := context.Background()

	_, err := env.roleSvc.Create(ctx, admin, models.CreateRoleRequest{Name: "user"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.Kind(err))

	role, err := env.roleSvc.Create(ctx, admin, models.CreateRoleRequest{Name: "temp"})
	require.NoError(t, err)
	require.NoError(t, env.roleSvc.Delete(ctx, admin, role.ID))
	_, err = env.roleSvc.Get(ctx, role.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.Kind(err))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.Kind(env.roleSvc.Delete(ctx, admin, role.ID)))

	roles, err := env.roleSvc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestRoleMineAndCatalog(t *testing.T) {
	env := newTestEnv(t)
	p := env.principal(t, env.seedUser(t, "ana@example.com", "password123", "user"))

	info, err := env.roleSvc.Mine(p)
	require.NoError(t, err)
	assert.Equal(t, "user", info.Name)
	assert.False(t, info.IsAdministrative)
	assert.ElementsMatch(t, models.DefaultRolePrivileges(), info.Permissions)

	groups := env.roleSvc.Privileges()
	require.NotEmpty(t, groups)
	for _, g := range groups {
		for _, priv := range g.Privileges {
			assert.True(t, models.IsKnownPrivilege(priv.Key))
		}
	}
}
