package access

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAMember is returned by RoleStore.TeamRole when (team, user) has no
// membership row. It is a distinct condition from a lookup failure: absence
// forbids, failure fails closed to login.
var ErrNotAMember = errors.New("not a member of team")

// Access error codes for API-facing denials.
const (
	ErrCodeUnauthenticated  = "access.unauthenticated"   // no resolvable identity
	ErrCodeForbidden        = "access.forbidden"         // insufficient team role or not a member
	ErrCodeRoleLookupFailed = "access.role_lookup_failed" // store error or timeout, fail-closed
)

// httpStatusMap maps access error codes to HTTP status codes.
var httpStatusMap = map[string]int{
	ErrCodeUnauthenticated:  http.StatusUnauthorized, // 401
	ErrCodeForbidden:        http.StatusForbidden,    // 403
	ErrCodeRoleLookupFailed: http.StatusUnauthorized, // 401, treated as unauthenticated
}

// AccessError is an authorization failure with a structured code, suitable
// for JSON API responses. Page routes never see these; they get redirects.
type AccessError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the status code for this error.
func (e *AccessError) HTTPStatus() int {
	return e.Status
}

func newAccessError(code, message string) *AccessError {
	return &AccessError{Code: code, Message: message, Status: httpStatusMap[code]}
}

// ErrUnauthenticated creates an error for requests with no identity.
func ErrUnauthenticated() *AccessError {
	return newAccessError(ErrCodeUnauthenticated, "authentication required")
}

// ErrForbidden creates an error for an insufficient-privilege denial.
func ErrForbidden(reason string) *AccessError {
	return newAccessError(ErrCodeForbidden, reason)
}

// ErrRoleLookupFailed creates the fail-closed error for role store failures.
func ErrRoleLookupFailed() *AccessError {
	return newAccessError(ErrCodeRoleLookupFailed, "authorization unavailable")
}

// IsAccessError reports whether err is or wraps an AccessError.
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}
