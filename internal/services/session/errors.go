// File: internal/services/session/errors.go
package session

import "fmt"

type ErrorType string

const (
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrTypeBackend      ErrorType = "BACKEND"
	ErrTypeAbort        ErrorType = "ABORT"
)

type SessionError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    string
	Cause     error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Session %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Session %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// NewValidationError rejects bad input before any state change.
func NewValidationError(operation, msg string) *SessionError {
	return &SessionError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewUnauthorizedError(operation string) *SessionError {
	return &SessionError{Type: ErrTypeUnauthorized, Operation: operation, Message: "sign in required"}
}

// NewBackendError wraps a collaborator failure surfaced on the session's
// error field; no raw failures reach the presentation layer.
func NewBackendError(operation, msg string, cause error) *SessionError {
	return &SessionError{Type: ErrTypeBackend, Operation: operation, Message: msg, Cause: cause}
}
