package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository/memory"
	"github.com/noah-isme/tasktrack-api/pkg/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	clock     *fakeClock
	cfg       AuthConfig
	users     *memory.UserStore
	roles     *memory.RoleStore
	tokens    *memory.RefreshTokenStore
	audits    *memory.AuditStore
	records   *memory.RecordStore
	snapshots *memory.SnapshotCache

	signer    *TokenSigner
	store     *RefreshTokenStore
	resolver  *PermissionResolver
	authn     *Authenticator
	hasher    *BcryptHasher
	audit     *AuditService
	auth      *AuthService
	userSvc   *UserService
	roleSvc   *RoleService
	recordSvc *RecordService
}

func testAuthConfig(clock *fakeClock) AuthConfig {
	return AuthConfig{
		AccessSecret:       "access-secret",
		AccessTTL:          15 * time.Minute,
		RefreshSecret:      "refresh-secret",
		RefreshTTL:         7 * 24 * time.Hour,
		Issuer:             "tasktrack-test",
		AdminRole:          "admin",
		DefaultRole:        "user",
		MinPasswordLength:  8,
		PermissionSnapshot: config.SnapshotPerToken,
		Clock:              clock.Now,
	}
}

func newTestEnv(t *testing.T, opts ...func(*AuthConfig)) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	cfg := testAuthConfig(clock)
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &testEnv{
		clock:     clock,
		cfg:       cfg,
		users:     memory.NewUserStore(),
		roles:     memory.NewRoleStore(),
		tokens:    memory.NewRefreshTokenStore(),
		audits:    memory.NewAuditStore(),
		records:   memory.NewRecordStore(),
		snapshots: memory.NewSnapshotCache(),
		hasher:    NewBcryptHasher(bcrypt.MinCost),
	}
	e.signer = NewTokenSigner(cfg)
	e.store = NewRefreshTokenStore(e.tokens, e.signer, nil, cfg)
	e.resolver = NewPermissionResolver(e.users, e.roles, e.snapshots, nil, nil, cfg)
	e.authn = NewAuthenticator(e.signer, e.resolver, nil, nil)
	e.audit = NewAuditService(e.audits, nil, nil)
	e.auth = NewAuthService(e.users, e.signer, e.store, e.resolver, e.hasher, e.audit, nil, nil, cfg)
	e.userSvc = NewUserService(e.users, e.roles, e.store, e.hasher, e.audit, nil, nil, cfg)
	e.roleSvc = NewRoleService(e.roles, e.audit, nil, nil)
	e.recordSvc = NewRecordService(e.records, e.audit, nil, nil)

	require.NoError(t, Bootstrap(context.Background(), e.roles, cfg, nil))
	return e
}

func (e *testEnv) role(t *testing.T, name string) *models.Role {
	t.Helper()
	role, err := e.roles.FindByName(context.Background(), name)
	require.NoError(t, err)
	return role
}

func (e *testEnv) seedUser(t *testing.T, email, password, roleName string) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	roleID := e.role(t, roleName).ID
	user := &models.User{Email: email, PasswordHash: hash, FirstName: "Test", Active: true, RoleID: &roleID}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) principal(t *testing.T, user *models.User) *models.Principal {
	t.Helper()
	p, err := e.resolver.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) login(t *testing.T, email, password string) *models.LoginResponse {
	t.Helper()
	res, err := e.auth.Login(context.Background(), models.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func bearer(token string) string {
	return "Bearer " + token
}
