package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrForbidden, "nope"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "nope", appErr.Message)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "record not found")
	assert.Equal(t, "record not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestKindHelpers(t *testing.T) {
	err := Unavailable(errors.New("db down"), "failed to load user")
	assert.Equal(t, ErrUnavailable.Code, Kind(err))
	assert.True(t, HasKind(err, ErrUnavailable))
	assert.False(t, HasKind(err, ErrValidation))
	assert.Equal(t, "", Kind(nil))
	assert.Contains(t, err.Error(), "db down")
}
