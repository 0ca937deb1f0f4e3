package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Extraction errors
	ErrFieldReadFailure   ErrorCode = "FIELD_READ_FAILURE"
	ErrFrameSourceFailure ErrorCode = "FRAME_SOURCE_FAILURE"

	// Startup errors
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrInvalidLayout ErrorCode = "INVALID_LAYOUT"

	// Sink errors
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrIndexError    ErrorCode = "INDEX_ERROR"
	ErrNotifyError   ErrorCode = "NOTIFY_ERROR"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// AnalyzerError represents an error raised somewhere along the frame-to-hand pipeline
type AnalyzerError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *AnalyzerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// NewError creates a new AnalyzerError
func NewError(code ErrorCode, message string) *AnalyzerError {
	return &AnalyzerError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in an AnalyzerError
func WrapError(code ErrorCode, message string, err error) *AnalyzerError {
	return &AnalyzerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsError checks if an error is, or wraps, an AnalyzerError with a specific code
func IsError(err error, code ErrorCode) bool {
	var analyzerErr *AnalyzerError
	if err == nil {
		return false
	}
	if ok := As(err, &analyzerErr); !ok {
		return false
	}
	return analyzerErr.Code == code
}

// As finds the first AnalyzerError in err's chain
func As(err error, target **AnalyzerError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}
