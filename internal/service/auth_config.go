package service

import (
	"time"

	"github.com/noah-isme/tasktrack-api/pkg/config"
)

// AuthConfig is the immutable configuration shared by the signer, the refresh
// token store and the auth use cases.
type AuthConfig struct {
	AccessSecret       string
	AccessTTL          time.Duration
	RefreshSecret      string
	RefreshTTL         time.Duration
	Issuer             string
	AdminRole          string
	DefaultRole        string
	MinPasswordLength  int
	AuditSessionEvents bool
	PermissionSnapshot string
	Clock              func() time.Time
}

// NewAuthConfig derives the auth configuration from the loaded application config.
func NewAuthConfig(cfg *config.Config) AuthConfig {
	return AuthConfig{
		AccessSecret:       cfg.JWT.AccessSecret,
		AccessTTL:          cfg.JWT.AccessTTL,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		RefreshTTL:         cfg.JWT.RefreshTTL,
		Issuer:             cfg.JWT.Issuer,
		AdminRole:          cfg.Auth.AdminRole,
		DefaultRole:        cfg.Auth.DefaultRole,
		MinPasswordLength:  cfg.Auth.MinPasswordLength,
		AuditSessionEvents: cfg.Auth.AuditSessionEvents,
		PermissionSnapshot: cfg.Auth.PermissionSnapshot,
	}
}

func (c AuthConfig) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

func (c AuthConfig) pinsPermissions() bool {
	return c.PermissionSnapshot != config.SnapshotPerRequest
}
