package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AuthError is the typed error surfaced by extraction, account resolution and token handling.
// Two AuthErrors match under errors.Is when their codes are equal.
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
	Err         error  `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches on the error code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Error codes
const (
	CodeUnsupportedProvider    = "unsupported_provider"
	CodeMissingEmail           = "missing_email"
	CodeInvalidIdentity        = "invalid_identity"
	CodeIdentityConflict       = "identity_conflict"
	CodeTokenExpired           = "token_expired"
	CodeTokenInvalid           = "invalid_token"
	CodeRefreshTokenInvalid    = "invalid_refresh_token"
	CodeUnauthenticated        = "unauthenticated"
	CodeAccessDenied           = "access_denied"
	CodeInvalidRequest         = "invalid_request"
	CodeTemporarilyUnavailable = "temporarily_unavailable"
)

// Sentinels for errors.Is checks.
var (
	ErrUnsupportedProvider = &AuthError{Code: CodeUnsupportedProvider}
	ErrMissingEmail        = &AuthError{Code: CodeMissingEmail}
	ErrInvalidIdentity     = &AuthError{Code: CodeInvalidIdentity}
	ErrIdentityConflict    = &AuthError{Code: CodeIdentityConflict}
	ErrTokenExpired        = &AuthError{Code: CodeTokenExpired}
	ErrTokenInvalid        = &AuthError{Code: CodeTokenInvalid}
	ErrRefreshTokenInvalid = &AuthError{Code: CodeRefreshTokenInvalid}
	ErrUnauthenticated     = &AuthError{Code: CodeUnauthenticated}
	ErrAccessDenied        = &AuthError{Code: CodeAccessDenied}
	ErrInvalidRequest      = &AuthError{Code: CodeInvalidRequest}
	ErrUnavailable         = &AuthError{Code: CodeTemporarilyUnavailable}
)

func UnsupportedProvider(provider string) *AuthError {
	return &AuthError{
		Code:        CodeUnsupportedProvider,
		Description: fmt.Sprintf("provider %q is not supported", provider),
		Status:      http.StatusBadRequest,
	}
}

func MissingEmail(provider string) *AuthError {
	return &AuthError{
		Code:        CodeMissingEmail,
		Description: fmt.Sprintf("provider %q did not share an email address", provider),
		Status:      http.StatusBadRequest,
	}
}

// InvalidIdentity reports a profile without an external id.
func InvalidIdentity(provider string) *AuthError {
	return &AuthError{
		Code:        CodeInvalidIdentity,
		Description: fmt.Sprintf("provider %q returned a profile without an identifier", provider),
		Status:      http.StatusBadRequest,
	}
}

func IdentityConflict(provider string) *AuthError {
	return &AuthError{
		Code:        CodeIdentityConflict,
		Description: fmt.Sprintf("a different %s identity is already linked", provider),
		Status:      http.StatusConflict,
	}
}

func TokenExpired() *AuthError {
	return &AuthError{
		Code:        CodeTokenExpired,
		Description: "the access token has expired",
		Status:      http.StatusUnauthorized,
	}
}

func TokenInvalid(cause error) *AuthError {
	return &AuthError{
		Code:        CodeTokenInvalid,
		Description: "the access token is invalid",
		Status:      http.StatusUnauthorized,
		Err:         cause,
	}
}

func RefreshTokenInvalid() *AuthError {
	return &AuthError{
		Code:        CodeRefreshTokenInvalid,
		Description: "the refresh token is invalid, expired or already used",
		Status:      http.StatusUnauthorized,
	}
}

func Unauthenticated() *AuthError {
	return &AuthError{
		Code:        CodeUnauthenticated,
		Description: "authentication is required",
		Status:      http.StatusUnauthorized,
	}
}

func AccessDenied() *AuthError {
	return &AuthError{
		Code:        CodeAccessDenied,
		Description: "insufficient permissions",
		Status:      http.StatusForbidden,
	}
}

// InvalidRequest reports a malformed login request, such as a callback whose state does
// not match the one issued.
func InvalidRequest(description string, cause error) *AuthError {
	return &AuthError{
		Code:        CodeInvalidRequest,
		Description: description,
		Status:      http.StatusBadRequest,
		Err:         cause,
	}
}

// Unavailable wraps an infrastructure failure. Requests that hit it fail closed.
func Unavailable(cause error) *AuthError {
	return &AuthError{
		Code:        CodeTemporarilyUnavailable,
		Description: "the service is temporarily unavailable",
		Status:      http.StatusServiceUnavailable,
		Err:         cause,
	}
}

// As extracts the AuthError from err's chain.
func As(err error) (*AuthError, bool) {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// HTTPStatus maps any error to a response status. Errors outside the taxonomy are
// infrastructure failures.
func HTTPStatus(err error) int {
	if authErr, ok := As(err); ok && authErr.Status != 0 {
		return authErr.Status
	}
	return http.StatusServiceUnavailable
}
