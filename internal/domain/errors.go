package domain

import (
	"fmt"
	"net/http"
)

// Error codes carried by AuthError. Handlers map them to the wire envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeConflict     = "conflict"
	CodeNotFound     = "not_found"
	CodeInternal     = "server_error"
)

// AuthError standardizes boundary errors for the auth and notes flows.
// Description is safe to return to clients; the underlying cause stays in logs.
type AuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// ErrBadRequest reports missing or malformed input, caught before any lookup.
func ErrBadRequest(desc string) *AuthError {
	return &AuthError{Code: CodeBadRequest, Description: desc, Status: http.StatusBadRequest}
}

// ErrUnauthorized covers bad credentials and invalid, expired, or revoked
// tokens. Credential lookup misses are normalized into this same error so
// responses never reveal whether the email or the password was wrong.
func ErrUnauthorized() *AuthError {
	return &AuthError{Code: CodeUnauthorized, Description: "Wrong credentials or invalid token.", Status: http.StatusUnauthorized}
}

// ErrConflict reports an already-registered email.
func ErrConflict(desc string) *AuthError {
	return &AuthError{Code: CodeConflict, Description: desc, Status: http.StatusConflict}
}

// ErrNotFound reports a missing domain entity (note lookups, not credentials).
func ErrNotFound(desc string) *AuthError {
	return &AuthError{Code: CodeNotFound, Description: desc, Status: http.StatusNotFound}
}

// ErrInternal covers store and signing failures. Auth flows fail closed on it.
func ErrInternal() *AuthError {
	return &AuthError{Code: CodeInternal, Description: "Something went wrong.", Status: http.StatusInternalServerError}
}
