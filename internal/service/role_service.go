package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type roleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
}

// RoleService manages roles and their permission keys.
type RoleService struct {
	repo      roleRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs a role service.
func NewRoleService(repo roleRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RoleService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list roles")
	}
	return roles, nil
}

// Get returns a role by id.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load role")
	}
	return role, nil
}

// Mine describes the role the principal authenticated with.
func (s *RoleService) Mine(principal *models.Principal) (*models.RoleInfo, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.RoleInfo{
		RoleID:           principal.RoleID,
		Name:             principal.RoleName,
		IsAdministrative: principal.Administrative,
		Permissions:      principal.Permissions.Keys(),
	}, nil
}

// Privileges returns the grouped permission catalog.
func (s *RoleService) Privileges() []models.PrivilegeGroup {
	return models.Privileges
}

// Create adds a role. Only administrative principals may create administrative roles.
func (s *RoleService) Create(ctx context.Context, principal *models.Principal, req models.CreateRoleRequest) (*models.Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid role payload")
	}
	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	if req.IsAdministrative && !principal.Administrative {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may grant administrative bypass")
	}

	role := &models.Role{Name: req.Name, Permissions: perms, IsAdministrative: req.IsAdministrative}
	if err := s.repo.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "role name already exists")
		}
		return nil, appErrors.Unavailable(err, "failed to create role")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionCreate,
		Entity:   models.AuditEntityRole,
		EntityID: role.ID,
		Detail:   map[string]interface{}{"name": role.Name, "permissions": []string(role.Permissions), "is_administrative": role.IsAdministrative},
	})
	return role, err
}

// Update changes a role. Permission changes reach identities on their next
// authentication.
func (s *RoleService) Update(ctx context.Context, principal *models.Principal, id string, req models.UpdateRoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid role payload")
	}
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		role.Name = strings.TrimSpace(*req.Name)
	}
	if req.Permissions != nil {
		perms, err := normalizePermissions(*req.Permissions)
		if err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	if req.IsAdministrative != nil && *req.IsAdministrative != role.IsAdministrative {
		if !principal.Administrative {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may change administrative bypass")
		}
		role.IsAdministrative = *req.IsAdministrative
	}

	if err := s.repo.Update(ctx, role); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "role name already exists")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Unavailable(err, "failed to update role")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionUpdate,
		Entity:   models.AuditEntityRole,
		EntityID: role.ID,
		Detail:   map[string]interface{}{"name": role.Name, "permissions": []string(role.Permissions), "is_administrative": role.IsAdministrative},
	})
	return role, err
}

// Delete removes a role. Identities still linked to it fail authentication
// with Forbidden until reassigned.
func (s *RoleService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, role.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Unavailable(err, "failed to delete role")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionDelete,
		Entity:   models.AuditEntityRole,
		EntityID: role.ID,
		Detail:   map[string]interface{}{"name": role.Name},
	})
	return err
}

func normalizePermissions(keys []string) (pq.StringArray, error) {
	seen := make(map[string]struct{}, len(keys))
	out := make(pq.StringArray, 0, len(keys))
	var unknown []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if !models.IsKnownPrivilege(k) {
			unknown = append(unknown, k)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(unknown) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown permission keys: "+strings.Join(unknown, ", "))
	}
	sort.Strings(out)
	return out, nil
}
