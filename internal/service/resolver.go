package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type identityLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type roleLookup interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
}

type snapshotCache interface {
	Get(ctx context.Context, tokenID string) (*models.PermissionSnapshot, error)
	Set(ctx context.Context, tokenID string, snap models.PermissionSnapshot, ttl time.Duration) error
}

// PermissionResolver maps an identity to its role and permission set.
type PermissionResolver struct {
	users   identityLookup
	roles   roleLookup
	cache   snapshotCache
	metrics *MetricsService
	logger  *zap.Logger
	config  AuthConfig
}

// NewPermissionResolver constructs a resolver. cache may be nil, which disables
// pinning regardless of the configured policy.
func NewPermissionResolver(users identityLookup, roles roleLookup, cache snapshotCache, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionResolver{users: users, roles: roles, cache: cache, metrics: metrics, logger: logger, config: config}
}

// Resolve loads the identity and its current role. Failures are *AuthFailure
// for unknown, inactive or role-less identities and Unavailable for storage errors.
func (r *PermissionResolver) Resolve(ctx context.Context, identityID string) (*models.Principal, error) {
	user, role, err := r.load(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return principalFromRole(user, role), nil
}

// ResolveForToken resolves the principal behind an access token. Under the
// per-token policy the permission set pinned for tokenID wins as long as the
// identity still references the same role.
func (r *PermissionResolver) ResolveForToken(ctx context.Context, identityID, tokenID string, expiresAt time.Time) (*models.Principal, error) {
	user, role, err := r.load(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if !r.pinning() || tokenID == "" {
		return principalFromRole(user, role), nil
	}

	if snap := r.pinned(ctx, tokenID); snap != nil && snap.RoleID == role.ID {
		p := &models.Principal{
			UserID:         user.ID,
			Email:          user.Email,
			RoleID:         snap.RoleID,
			RoleName:       snap.RoleName,
			Administrative: snap.Administrative,
			Permissions:    models.NewPermissionSet(snap.Permissions...),
			TokenID:        tokenID,
		}
		return p, nil
	}

	p := principalFromRole(user, role)
	p.TokenID = tokenID
	r.Pin(ctx, p, tokenID, expiresAt)
	return p, nil
}

// Pin stores the permission snapshot of p for tokenID until expiresAt.
// Cache failures are logged and ignored.
func (r *PermissionResolver) Pin(ctx context.Context, p *models.Principal, tokenID string, expiresAt time.Time) {
	if !r.pinning() || p == nil || tokenID == "" {
		return
	}
	ttl := expiresAt.Sub(r.config.now())
	if ttl <= 0 {
		return
	}
	snap := models.PermissionSnapshot{
		RoleID:         p.RoleID,
		RoleName:       p.RoleName,
		Administrative: p.Administrative,
		Permissions:    p.Permissions.Keys(),
	}
	if err := r.cache.Set(ctx, tokenID, snap, ttl); err != nil {
		r.logger.Warn("failed to pin permission snapshot", zap.String("token_id", tokenID), zap.Error(err))
	}
}

func (r *PermissionResolver) pinning() bool {
	return r.cache != nil && r.config.pinsPermissions()
}

func (r *PermissionResolver) pinned(ctx context.Context, tokenID string) *models.PermissionSnapshot {
	start := time.Now()
	snap, err := r.cache.Get(ctx, tokenID)
	r.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			r.logger.Warn("permission snapshot lookup failed", zap.String("token_id", tokenID), zap.Error(err))
		}
		return nil
	}
	return snap
}

func (r *PermissionResolver) load(ctx context.Context, identityID string) (*models.User, *models.Role, error) {
	user, err := r.users.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, newAuthFailure(ReasonUnknownSubject, err)
		}
		return nil, nil, appErrors.Unavailable(err, "failed to load identity")
	}
	if !user.Active {
		return nil, nil, newAuthFailure(ReasonInactiveIdentity, nil)
	}
	if user.RoleID == nil || *user.RoleID == "" {
		return nil, nil, newAuthFailure(ReasonMissingRole, nil)
	}

	role, err := r.roles.FindByID(ctx, *user.RoleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, newAuthFailure(ReasonMissingRole, err)
		}
		return nil, nil, appErrors.Unavailable(err, "failed to load role")
	}
	return user, role, nil
}

func principalFromRole(user *models.User, role *models.Role) *models.Principal {
	return &models.Principal{
		UserID:         user.ID,
		Email:          user.Email,
		RoleID:         role.ID,
		RoleName:       role.Name,
		Administrative: role.IsAdministrative,
		Permissions:    models.NewPermissionSet(role.Permissions...),
	}
}
