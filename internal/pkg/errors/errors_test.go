package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := New(CodeValidationFailed, "title is required", http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED: title is required", err.Error())

	wrapped := Wrap(errors.New("connection refused"), CodeRequisitionNotFound, "lookup failed", http.StatusNotFound)
	assert.Equal(t, "REQUISITION_NOT_FOUND: lookup failed: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(inner, CodeRequisitionNotFound, "lookup failed", http.StatusNotFound)

	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, fmt.Errorf("outer: %w", err), inner)
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound(CodeUserNotFound, "user not found")
	wrapped := fmt.Errorf("resolve actor: %w", appErr)

	got, ok := IsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUserNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)

	_, ok = IsAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict(CodeCannotCancelOrdered, "already ordered"))

	assert.True(t, HasCode(err, CodeCannotCancelOrdered))
	assert.False(t, HasCode(err, CodeInvalidStateTransition))
	assert.False(t, HasCode(nil, CodeCannotCancelOrdered))
}

func TestWithParams(t *testing.T) {
	err := ErrInsufficientPermissionf("finance", 1)
	assert.Equal(t, "finance", err.Params["required_role"])
	assert.Equal(t, 1, err.Params["level"])

	base := BadRequest(CodeValidationFailed, "bad item").
		WithParams(map[string]interface{}{"index": 3})
	assert.Equal(t, 3, base.Params["index"])

	// Empty params leave the error untouched.
	assert.Nil(t, BadRequest(CodeValidationFailed, "x").WithParams(nil).Params)
}

func TestConstructorStatuses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrRequisitionNotFoundf("r1").HTTPStatus)
	assert.Equal(t, http.StatusConflict, ErrInvalidStateTransitionf("r1", "approved").HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, ErrConfigurationNotFoundf("requisition", 100).HTTPStatus)
	assert.Equal(t, http.StatusForbidden, ErrInsufficientPermissionf("approver", 0).HTTPStatus)
}
