package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/pkg/config"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

func requireReason(t *testing.T, err error, reason AuthFailureReason) {
	t.Helper()
	var failure *AuthFailure
	require.True(t, errors.As(err, &failure), "expected auth failure, got %v", err)
	assert.Equal(t, reason, failure.Reason)
}

func TestAuthenticateAcceptsIssuedToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	p, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, "user", p.RoleName)
	assert.True(t, p.Can(models.PrivilegeRecordCreate))
	assert.False(t, p.Can(models.PrivilegeUserDelete))
	assert.NotEmpty(t, p.TokenID)
}

func TestAuthenticateHeaderFailures(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]struct {
		header string
		reason AuthFailureReason
	}{
		"missing":      {header: "", reason: ReasonMissingHeader},
		"blank":        {header: "   ", reason: ReasonMissingHeader},
		"no token":     {header: "Bearer", reason: ReasonMalformedHeader},
		"extra parts":  {header: "Bearer a b", reason: ReasonMalformedHeader},
		"basic scheme": {header: "Basic dXNlcjpwYXNz", reason: ReasonUnsupportedScheme},
		"garbage":      {header: "Bearer not-a-jwt", reason: ReasonInvalidSignature},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.authn.Authenticate(context.Background(), tc.header)
			requireReason(t, err, tc.reason)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.Kind(err))
		})
	}
}

func TestAuthenticateSchemeIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	_, err := env.authn.Authenticate(context.Background(), "bearer "+res.AccessToken)
	assert.NoError(t, err)
}

func TestAuthenticateTokenFailuresShareOnePublicError(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")

	foreignCfg := env.cfg
	foreignCfg.AccessSecret = "someone-else"
	foreign, err := NewTokenSigner(foreignCfg).IssueAccess(user.ID)
	require.NoError(t, err)

	expired, err := env.signer.IssueAccess(user.ID)
	require.NoError(t, err)
	env.clock.Advance(16 * time.Minute)

	ghost, err := env.signer.IssueAccess("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)

	cases := map[string]struct {
		token  string
		reason AuthFailureReason
	}{
		"wrong secret":    {token: foreign.Token, reason: ReasonInvalidSignature},
		"expired":         {token: expired.Token, reason: ReasonExpired},
		"unknown subject": {token: ghost.Token, reason: ReasonUnknownSubject},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.authn.Authenticate(context.Background(), bearer(tc.token))
			requireReason(t, err, tc.reason)
			public := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, public.Code)
			assert.Equal(t, invalidTokenMessage, public.Message)
		})
	}
}

func TestAuthenticateRejectsInactiveIdentity(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	user.Active = false
	require.NoError(t, env.users.Update(context.Background(), user))

	_, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	requireReason(t, err, ReasonInactiveIdentity)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))
}

func TestAuthenticateBrokenRoleIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	dangling := "11111111-1111-1111-1111-111111111111"
	user.RoleID = &dangling
	require.NoError(t, env.users.Update(context.Background(), user))

	_, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	requireReason(t, err, ReasonMissingRole)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.Kind(err))

	user.RoleID = nil
	require.NoError(t, env.users.Update(context.Background(), user))
	_, err = env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	requireReason(t, err, ReasonMissingRole)
}

func TestAuthenticateNeverReadsRefreshStore(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	require.NoError(t, env.store.RevokeAll(context.Background(), user.ID))

	_, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	assert.NoError(t, err)
}

func TestPermissionSnapshotPerToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	role := env.role(t, "user")
	role.Permissions = append(role.Permissions, models.PrivilegeAuditView)
	require.NoError(t, env.roles.Update(context.Background(), role))

	p, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	require.NoError(t, err)
	assert.False(t, p.Can(models.PrivilegeAuditView), "existing token keeps the permissions it was issued with")

	refreshed, err := env.auth.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	p, err = env.authn.Authenticate(context.Background(), bearer(refreshed.AccessToken))
	require.NoError(t, err)
	assert.True(t, p.Can(models.PrivilegeAuditView), "new token sees the updated role")
}

func TestPermissionSnapshotIgnoredAfterRoleReassignment(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	adminID := env.role(t, "admin").ID
	user.RoleID = &adminID
	require.NoError(t, env.users.Update(context.Background(), user))

	p, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	require.NoError(t, err)
	assert.True(t, p.Administrative)
	assert.Equal(t, "admin", p.RoleName)
}

func TestPermissionSnapshotPerRequest(t *testing.T) {
	env := newTestEnv(t, func(c *AuthConfig) { c.PermissionSnapshot = config.SnapshotPerRequest })
	env.seedUser(t, "ana@example.com", "password123", "user")
	res := env.login(t, "ana@example.com", "password123")

	role := env.role(t, "user")
	role.Permissions = append(role.Permissions, models.PrivilegeAuditView)
	require.NoError(t, env.roles.Update(context.Background(), role))

	p, err := env.authn.Authenticate(context.Background(), bearer(res.AccessToken))
	require.NoError(t, err)
	assert.True(t, p.Can(models.PrivilegeAuditView))
}
