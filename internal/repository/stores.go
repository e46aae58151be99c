package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

// SnapshotStore caches permission snapshots keyed by access token id.
type SnapshotStore interface {
	Get(ctx context.Context, tokenID string) (*models.PermissionSnapshot, error)
	Set(ctx context.Context, tokenID string, snap models.PermissionSnapshot, ttl time.Duration) error
}

var _ SnapshotStore = (*SnapshotCache)(nil)

// UserStore persists identities.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// RoleStore persists roles.
type RoleStore interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
}

// RefreshTokenStore persists refresh tokens. Rotate must replace every row of
// the token's user atomically.
type RefreshTokenStore interface {
	Rotate(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RecordStore persists records.
type RecordStore interface {
	FindByID(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error)
	Create(ctx context.Context, record *models.Record) error
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, id string) error
}

// AuditStore appends and reads audit entries.
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// Stores bundles one backend per entity.
type Stores struct {
	Users         UserStore
	Roles         RoleStore
	RefreshTokens RefreshTokenStore
	Records       RecordStore
	Audit         AuditStore
}

// NewPostgresStores returns the sqlx backed stores.
func NewPostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Users:         NewUserRepository(db),
		Roles:         NewRoleRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Records:       NewRecordRepository(db),
		Audit:         NewAuditRepository(db),
	}
}
