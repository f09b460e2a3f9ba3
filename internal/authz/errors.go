package authz

import (
	"fmt"
	"net/http"
)

// PermissionDeniedError signals that the acting role may not perform
// the requested action. Terminal per request; never retried.
type PermissionDeniedError struct {
	Role    Role
	Module  string
	Action  string
	Message string
}

func (e *PermissionDeniedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s cannot %s on %s", e.Role, e.Action, e.Module)
}

// HTTPStatus maps the denial to 403.
func (e *PermissionDeniedError) HTTPStatus() int { return http.StatusForbidden }

// TenantMismatchError signals a cross-tenant access attempt.
type TenantMismatchError struct {
	UserTenantID     int64
	ResourceTenantID int64
}

func (e *TenantMismatchError) Error() string {
	return fmt.Sprintf("tenant %d cannot access resources of tenant %d", e.UserTenantID, e.ResourceTenantID)
}

// HTTPStatus maps the mismatch to 403.
func (e *TenantMismatchError) HTTPStatus() int { return http.StatusForbidden }
