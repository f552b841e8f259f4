package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable identifier for a client-facing error.
// Codes are part of the API contract and must not change between releases.
type Code string

const (
	CodePolicyViolation           Code = "policy_violation"
	CodeIncompatibleEvent         Code = "incompatible_event_transition"
	CodeSessionNotFound           Code = "session_not_found"
	CodeVerificationNotFound      Code = "verification_not_found"
	CodeInvalidVerificationMethod Code = "invalid_verification_method"
	CodeIdentityConflict          Code = "identity_conflict"
	CodeAccountSuspended          Code = "account_suspended"
	CodeUserNotFound              Code = "user_not_found"
	CodeFieldConflict             Code = "field_conflict"
	CodePasswordRejected          Code = "password_rejected"
	CodeConfigurationIncomplete   Code = "configuration_incomplete"
	CodeInvalidRequest            Code = "invalid_request"
	CodeInvalidRedirectURI        Code = "invalid_redirect_uri"
)

// Error is a client-facing error. Message and Data are safe to return to the
// caller; anything sensitive belongs in a wrapped cause, which is only logged
// server-side.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code, so callers can test against
// the sentinel values below with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithData returns a copy of the error carrying additional detail for the
// client (e.g. which field collided).
func (e *Error) WithData(data map[string]any) *Error {
	clone := *e
	clone.Data = data
	return &clone
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinel instances for errors.Is checks.
var (
	ErrPolicyViolation           = New(CodePolicyViolation, "requested action is disabled by the sign-in experience")
	ErrIncompatibleEvent         = New(CodeIncompatibleEvent, "the interaction event cannot be changed to the requested value")
	ErrSessionNotFound           = New(CodeSessionNotFound, "interaction session not found")
	ErrVerificationNotFound      = New(CodeVerificationNotFound, "verification record not found")
	ErrInvalidVerificationMethod = New(CodeInvalidVerificationMethod, "verification record cannot be used for this operation")
	ErrIdentityConflict          = New(CodeIdentityConflict, "a different user is already identified in this session")
	ErrAccountSuspended          = New(CodeAccountSuspended, "account is suspended")
	ErrUserNotFound              = New(CodeUserNotFound, "user not found")
	ErrConfigurationIncomplete   = New(CodeConfigurationIncomplete, "application federation configuration is incomplete")
	ErrInvalidRequest            = New(CodeInvalidRequest, "invalid request")
	ErrInvalidRedirectURI        = New(CodeInvalidRedirectURI, "redirect URI does not match the registered value")
)

// FieldConflict reports a uniqueness collision on a single identifying field.
func FieldConflict(field string) *Error {
	return New(CodeFieldConflict, fmt.Sprintf("%s already in use", field)).
		WithData(map[string]any{"field": field})
}

// PasswordRejected reports the full list of violated password policy rules.
func PasswordRejected(violations []string) *Error {
	return New(CodePasswordRejected, "password does not satisfy the password policy").
		WithData(map[string]any{"violations": violations})
}

// HTTPStatus maps an error code to the status the server layer responds with.
// Everything in the taxonomy is a 4xx; unknown errors are the caller's 500.
func HTTPStatus(code Code) int {
	switch code {
	case CodeSessionNotFound, CodeVerificationNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeIdentityConflict, CodeFieldConflict:
		return http.StatusConflict
	case CodeAccountSuspended:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
