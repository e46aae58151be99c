package memory

import "github.com/noah-isme/tasktrack-api/internal/repository"

var (
	_ repository.UserStore         = (*UserStore)(nil)
	_ repository.RoleStore         = (*RoleStore)(nil)
	_ repository.RefreshTokenStore = (*RefreshTokenStore)(nil)
	_ repository.RecordStore       = (*RecordStore)(nil)
	_ repository.AuditStore        = (*AuditStore)(nil)
	_ repository.SnapshotStore     = (*SnapshotCache)(nil)
)

// NewStores returns empty in-memory stores for every entity.
func NewStores() repository.Stores {
	return repository.Stores{
		Users:         NewUserStore(),
		Roles:         NewRoleStore(),
		RefreshTokens: NewRefreshTokenStore(),
		Records:       NewRecordStore(),
		Audit:         NewAuditStore(),
	}
}
