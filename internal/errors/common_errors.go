package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypeTypeCoercion ErrorType = "TYPE_COERCION"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeAnalysis     ErrorType = "ANALYSIS"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSchemaError reports required input columns that are absent.
// It is fatal: nothing downstream of the loader runs.
func NewSchemaError(missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
		WithContext("missing_columns", missing)
}

// NewTypeCoercionError reports a cell that cannot be parsed into its column type.
func NewTypeCoercionError(column string, row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeTypeCoercion,
		fmt.Sprintf("cannot coerce %s value %q at row %d", column, value, row), cause).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", value)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewAnalysisError creates an error raised by one of the analysis engines
func NewAnalysisError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAnalysis, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsSchemaError reports whether err is a missing-column failure.
func IsSchemaError(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrTypeSchema
}

// IsTypeCoercionError reports whether err is a cell coercion failure.
func IsTypeCoercionError(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrTypeTypeCoercion
}

// IsFatal reports whether err belongs to the loader's fatal taxonomy.
func IsFatal(err error) bool {
	return IsSchemaError(err) || IsTypeCoercionError(err)
}
