package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
)

// Bootstrap ensures the default and administrative roles exist. The
// administrative role always carries the bypass flag and every catalog key.
func Bootstrap(ctx context.Context, roles roleRepository, cfg AuthConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ensureRole(ctx, roles, cfg.DefaultRole, models.DefaultRolePrivileges(), false, logger); err != nil {
		return err
	}
	return ensureRole(ctx, roles, cfg.AdminRole, models.AllPrivilegeKeys(), true, logger)
}

func ensureRole(ctx context.Context, roles roleRepository, name string, perms []string, administrative bool, logger *zap.Logger) error {
	existing, err := roles.FindByName(ctx, name)
	switch {
	case err == nil:
		if administrative && !existing.IsAdministrative {
			existing.IsAdministrative = true
			if err := roles.Update(ctx, existing); err != nil {
				return fmt.Errorf("flag administrative role %s: %w", name, err)
			}
			logger.Info("administrative flag restored", zap.String("role", name))
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("load role %s: %w", name, err)
	}

	role := &models.Role{Name: name, Permissions: pq.StringArray(perms), IsAdministrative: administrative}
	if err := roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create role %s: %w", name, err)
	}
	logger.Info("role provisioned", zap.String("role", name), zap.Bool("administrative", administrative))
	return nil
}
