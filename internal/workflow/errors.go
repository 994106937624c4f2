package workflow

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes workflow errors.
type ErrorCode string

const (
	// ErrCodeNotInitialized indicates the workspace has not been initialized.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// ErrCodeAlreadyExecuted indicates a run was requested for an executed bond.
	ErrCodeAlreadyExecuted ErrorCode = "ALREADY_EXECUTED"

	// ErrCodeSelectionTooSmall indicates a holologue selection below the minimum.
	ErrCodeSelectionTooSmall ErrorCode = "SELECTION_TOO_SMALL"

	// ErrCodeItemNotFound indicates a referenced input item does not exist.
	ErrCodeItemNotFound ErrorCode = "ITEM_NOT_FOUND"

	// ErrCodeScopeMismatch indicates an entity belongs to another network or episode.
	ErrCodeScopeMismatch ErrorCode = "SCOPE_MISMATCH"

	// ErrCodeAlreadyCurated indicates the id is already in the curated list.
	ErrCodeAlreadyCurated ErrorCode = "ALREADY_CURATED"

	// ErrCodeNotCurated indicates the id is not in the curated list.
	ErrCodeNotCurated ErrorCode = "NOT_CURATED"

	// ErrCodeInvalidArgument indicates a malformed request.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// ValidationError is rejected input: nothing was spent and no state changed,
// except the explicit validation-failure events the holologue path records.
type ValidationError struct {
	Code     ErrorCode
	Message  string
	EntityID string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotInitialized reports whether err says the workspace needs init.
func IsNotInitialized(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeNotInitialized
	}
	return false
}

func newValidationError(code ErrorCode, message, entityID string) *ValidationError {
	return &ValidationError{Code: code, Message: message, EntityID: entityID}
}
