package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.Equal(t, "user", cfg.Auth.DefaultRole)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, SnapshotPerToken, cfg.Auth.PermissionSnapshot)
	assert.Equal(t, 5, cfg.RateLimit.LoginLimit)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("JWT_REFRESH_TTL", "not-a-duration")
	t.Setenv("AUTH_AUDIT_SESSION_EVENTS", "true")
	t.Setenv("AUTH_PERMISSION_SNAPSHOT", "REQUEST")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DB_DRIVER", "Memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "access", cfg.JWT.AccessSecret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.True(t, cfg.Auth.AuditSessionEvents)
	assert.Equal(t, SnapshotPerRequest, cfg.Auth.PermissionSnapshot)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env: EnvDevelopment,
			JWT: JWTConfig{AccessSecret: "a", RefreshSecret: "b", AccessTTL: time.Minute, RefreshTTL: time.Hour},
			Auth: AuthConfig{
				AdminRole:          "admin",
				DefaultRole:        "user",
				MinPasswordLength:  8,
				PermissionSnapshot: SnapshotPerToken,
			},
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"shared secret":      func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret },
		"missing secret":     func(c *Config) { c.JWT.AccessSecret = "" },
		"zero ttl":           func(c *Config) { c.JWT.AccessTTL = 0 },
		"same role names":    func(c *Config) { c.Auth.DefaultRole = "admin" },
		"password length":    func(c *Config) { c.Auth.MinPasswordLength = 0 },
		"unknown snapshot":   func(c *Config) { c.Auth.PermissionSnapshot = "forever" },
		"unknown driver":     func(c *Config) { c.Database.Driver = "sqlite" },
		"memory in prod":     func(c *Config) { c.Env = EnvProduction; c.Database.Driver = DriverMemory },
		"dev secret in prod": func(c *Config) { c.Env = EnvProduction; c.JWT.AccessSecret = "dev_access_secret" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
