package errors

import "net/http"

// Error code constants. Errors carry code + params; messages stay English-only
// in logs and responses.

// Requisition error codes.
const (
	CodeRequisitionNotFound    = "REQUISITION_NOT_FOUND"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInsufficientPermission = "INSUFFICIENT_PERMISSION"
	CodeReasonRequired         = "REASON_REQUIRED"
	CodeCannotCancelOrdered    = "CANNOT_CANCEL_ORDERED"
)

// Approval policy error codes.
const (
	CodeConfigurationNotFound = "CONFIGURATION_NOT_FOUND"
)

// Identity error codes.
const (
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeNoDepartmentAssigned = "NO_DEPARTMENT_ASSIGNED"
	CodeForbidden            = "FORBIDDEN"
)

// Budget error codes.
const (
	CodeBudgetNotFound = "BUDGET_NOT_FOUND"
)

// Purchase order error codes.
const (
	CodePurchaseOrderNotFound  = "PURCHASE_ORDER_NOT_FOUND"
	CodeRequisitionNotApproved = "REQUISITION_NOT_APPROVED"
	CodeDepartmentMismatch     = "DEPARTMENT_MISMATCH"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Convenience constructors using predefined codes.

// ErrRequisitionNotFoundf creates a requisition not found error.
func ErrRequisitionNotFoundf(id string) *AppError {
	return &AppError{
		Code:       CodeRequisitionNotFound,
		Message:    "requisition not found",
		HTTPStatus: http.StatusNotFound,
		Params:     map[string]interface{}{"requisition_id": id},
	}
}

// ErrInvalidStateTransitionf signals that the requisition state no longer
// matches the caller's expectation. Clients should re-fetch and show the
// current state rather than retry blindly.
func ErrInvalidStateTransitionf(id, status string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    "requisition state changed since it was read",
		HTTPStatus: http.StatusConflict,
		Params:     map[string]interface{}{"requisition_id": id, "status": status},
	}
}

// ErrConfigurationNotFoundf creates an approval policy lookup failure.
func ErrConfigurationNotFoundf(module string, amount int64) *AppError {
	return &AppError{
		Code:       CodeConfigurationNotFound,
		Message:    "no active approval configuration matches the amount",
		HTTPStatus: http.StatusUnprocessableEntity,
		Params:     map[string]interface{}{"module": module, "amount": amount},
	}
}

// ErrInsufficientPermissionf creates a role mismatch error for an approval level.
func ErrInsufficientPermissionf(requiredRole string, level int) *AppError {
	return &AppError{
		Code:       CodeInsufficientPermission,
		Message:    "actor role cannot act on the current approval level",
		HTTPStatus: http.StatusForbidden,
		Params:     map[string]interface{}{"required_role": requiredRole, "level": level},
	}
}
