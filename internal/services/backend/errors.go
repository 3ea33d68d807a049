// File: internal/services/backend/errors.go
package backend

import "fmt"

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeAbort      ErrorType = "ABORT"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeResponder  ErrorType = "RESPONDER"
)

type BackendError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    string
	Cause     error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Backend %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Backend %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Aborted reports whether this error represents cooperative cancellation.
// The session's request controller discards aborted results silently.
func (e *BackendError) Aborted() bool {
	return e.Type == ErrTypeAbort
}

func NewValidationError(operation, msg string) *BackendError {
	return &BackendError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewAbortError(operation string, cause error) *BackendError {
	return &BackendError{Type: ErrTypeAbort, Operation: operation, Message: "operation cancelled", Cause: cause}
}

func NewNotFoundError(operation, chatID string) *BackendError {
	return &BackendError{Type: ErrTypeNotFound, Operation: operation, Message: "chat not found", ChatID: chatID}
}

func NewStorageError(operation, msg string, cause error) *BackendError {
	return &BackendError{Type: ErrTypeStorage, Operation: operation, Message: msg, Cause: cause}
}

func NewResponderError(operation, msg string, cause error) *BackendError {
	return &BackendError{Type: ErrTypeResponder, Operation: operation, Message: msg, Cause: cause}
}
