package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

// AuthorizeAction fails Forbidden unless key is literally in the principal's permission set.
func AuthorizeAction(principal *models.Principal, key string) error {
	if principal == nil {
		return appErrors.ErrUnauthorized
	}
	if !principal.Can(key) {
		return appErrors.Clone(appErrors.ErrForbidden, "missing permission "+key)
	}
	return nil
}

// CheckOwnership passes for administrative principals and for the owner of resource.
func CheckOwnership(principal *models.Principal, resource models.Owned) error {
	if principal == nil {
		return appErrors.ErrUnauthorized
	}
	if principal.Administrative || resource.OwnerID() == principal.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not own this resource")
}

// AuthorizeOwnership loads a resource and applies CheckOwnership to it. A
// missing resource is NotFound and any other load failure is Unavailable.
func AuthorizeOwnership[T models.Owned](ctx context.Context, principal *models.Principal, entity string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	resource, err := load(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
		}
		return zero, appErrors.Unavailable(err, "failed to load "+entity)
	}
	if err := CheckOwnership(principal, resource); err != nil {
		return zero, err
	}
	return resource, nil
}
