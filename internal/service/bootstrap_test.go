package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/repository/memory"
	"github.com/noah-isme/tasktrack-api/pkg/jobs"
)

func TestBootstrapIsIdempotentAndRestoresAdminFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.role(t, "admin")
	assert.True(t, admin.IsAdministrative)
	assert.False(t, env.role(t, "user").IsAdministrative)

	admin.IsAdministrative = false
	require.NoError(t, env.roles.Update(ctx, admin))

	require.NoError(t, Bootstrap(ctx, env.roles, env.cfg, nil))
	assert.True(t, env.role(t, "admin").IsAdministrative)

	roles, err := env.roles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestBootstrapKeepsCustomisedPermissions(t *testing.T) {
	roles := memory.NewRoleStore()
	cfg := testAuthConfig(&fakeClock{now: time.Now()})
	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, roles, cfg, nil))

	user, err := roles.FindByName(ctx, "user")
	require.NoError(t, err)
	user.Permissions = nil
	require.NoError(t, roles.Update(ctx, user))

	require.NoError(t, Bootstrap(ctx, roles, cfg, nil))
	user, err = roles.FindByName(ctx, "user")
	require.NoError(t, err)
	assert.Empty(t, user.Permissions)
}

func TestTokenSweeperHandlesSweepJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sweeper := NewTokenSweeper(env.store, nil, nil)

	_, err := env.store.Issue(ctx, "user-1")
	require.NoError(t, err)
	env.clock.Advance(env.cfg.RefreshTTL)

	require.NoError(t, sweeper.Handle(ctx, jobs.Job{ID: "j1", Type: JobSweepRefreshTokens}))
	assert.Equal(t, 0, env.tokens.CountByUser("user-1"))

	assert.Error(t, sweeper.Handle(ctx, jobs.Job{Type: "report.generate"}))
}
