package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type userRoleLookup interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

type tokenRevoker interface {
	RevokeAll(ctx context.Context, identityID string) error
}

// UserService handles registration and user management workflows.
type UserService struct {
	repo      userRepository
	roles     userRoleLookup
	tokens    tokenRevoker
	hasher    passwordHasher
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, roles userRoleLookup, tokens tokenRevoker, hasher passwordHasher, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, roles: roles, tokens: tokens, hasher: hasher, audit: audit, validator: validate, logger: logger, config: config}
}

// Register creates an identity with the default role. The new user is the
// actor of its own audit entry.
func (s *UserService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	role, err := s.roles.FindByName(ctx, s.config.DefaultRole)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "default role is not provisioned")
		}
		return nil, appErrors.Unavailable(err, "failed to load default role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	roleID := role.ID
	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Active:       true,
		RoleID:       &roleID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Unavailable(err, "failed to create user")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  user.ID,
		Action:   models.AuditActionCreate,
		Entity:   models.AuditEntityUser,
		EntityID: user.ID,
		Detail:   map[string]interface{}{"email": user.Email, "role": role.Name},
	})
	return user, err
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Unavailable(err, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load user")
	}
	return user, nil
}

// Update changes a user. Non-administrative principals may only change
// themselves and never their active flag or role.
func (s *UserService) Update(ctx context.Context, principal *models.Principal, id string, req models.UpdateUserRequest) (*models.User, error) {
	req.Email = trimmed(req.Email)
	if req.Email != nil {
		*req.Email = strings.ToLower(*req.Email)
	}
	req.FirstName = trimmed(req.FirstName)
	req.LastName = trimmed(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}

	user, err := AuthorizeOwnership(ctx, principal, "user", func(ctx context.Context) (*models.User, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if (req.Active != nil || req.RoleID != nil) && !principal.Administrative {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may change activation or role")
	}

	var changed []string
	revokeSessions := false

	if req.Email != nil && *req.Email != user.Email {
		user.Email = *req.Email
		changed = append(changed, "email")
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
		changed = append(changed, "first_name")
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
		changed = append(changed, "last_name")
	}
	if req.Password != nil {
		if err := s.checkPassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
		revokeSessions = true
	}
	if req.Active != nil && *req.Active != user.Active {
		user.Active = *req.Active
		changed = append(changed, "is_active")
		revokeSessions = revokeSessions || !user.Active
	}
	if req.RoleID != nil {
		if _, err := s.roles.FindByID(ctx, *req.RoleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "role does not exist")
			}
			return nil, appErrors.Unavailable(err, "failed to load role")
		}
		roleID := *req.RoleID
		user.RoleID = &roleID
		changed = append(changed, "role_id")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Unavailable(err, "failed to update user")
	}

	var revokeErr error
	if revokeSessions {
		if revokeErr = s.tokens.RevokeAll(ctx, user.ID); revokeErr != nil {
			s.logger.Error("failed to revoke sessions after user update", zap.String("user_id", user.ID), zap.Error(revokeErr))
		}
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionUpdate,
		Entity:   models.AuditEntityUser,
		EntityID: user.ID,
		Detail:   map[string]interface{}{"fields": changed},
	})
	if revokeErr != nil {
		return user, revokeErr
	}
	return user, err
}

// Delete removes a user and its refresh tokens. Audit rows keep the id.
func (s *UserService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	user, err := AuthorizeOwnership(ctx, principal, "user", func(ctx context.Context) (*models.User, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Unavailable(err, "failed to delete user")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionDelete,
		Entity:   models.AuditEntityUser,
		EntityID: user.ID,
		Detail:   map[string]interface{}{"email": user.Email},
	})
	return err
}

func (s *UserService) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < s.config.MinPasswordLength {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("password must be at least %d characters", s.config.MinPasswordLength))
	}
	return nil
}

// normalizeEmail trims and lowercases an address so uniqueness holds regardless of case.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	return &out
}
