// Package errors provides standardized error handling across the solver service.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	ErrCodeRequirementNotFound ErrorCode = "REQUIREMENT_NOT_FOUND"
	ErrCodeIngredientNotFound  ErrorCode = "INGREDIENT_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheOperationFailed     ErrorCode = "CACHE_OPERATION_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeBackendInitFailed      ErrorCode = "BACKEND_INIT_FAILED"
	ErrCodeBackendExecutionFailed ErrorCode = "BACKEND_EXECUTION_FAILED"

	ErrCodeImportParseFailed ErrorCode = "IMPORT_PARSE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. HTTP Error Integration
// ==========================

// ErrorResponse is the JSON body written for a failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HTTPStatusMapping maps internal error codes to HTTP status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidInput:           400,
	ErrCodeSchemaValidationFailed: 400,
	ErrCodeImportParseFailed:      400,

	ErrCodeRequirementNotFound: 404,
	ErrCodeIngredientNotFound:  404,

	ErrCodeDatabaseConnectionFailed:      503,
	ErrCodeQueryExecutionFailed:          503,
	ErrCodeCacheOperationFailed:          503,
	ErrCodeElasticsearchConnectionFailed: 503,
	ErrCodeSearchQueryFailed:             503,

	ErrCodeBackendInitFailed:      500,
	ErrCodeBackendExecutionFailed: 500,
	ErrCodeInternal:               500,
}

// HTTPStatusFor returns the HTTP status for an error code, defaulting to 500.
func HTTPStatusFor(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return 500
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable request validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid solve request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationFailedError creates a non-retryable schema validation error.
func NewSchemaValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidationFailed,
		Message:   "Request body failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequirementNotFoundError creates a non-retryable lookup error.
func NewRequirementNotFoundError(requirementID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequirementNotFound,
		Message:   "Requirement not found",
		Details:   fmt.Sprintf("requirementId: %s", requirementID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIngredientNotFoundError creates a non-retryable lookup error.
func NewIngredientNotFoundError(ingredientID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIngredientNotFound,
		Message:   "Ingredient not found",
		Details:   fmt.Sprintf("ingredientId: %s", ingredientID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheOperationFailedError creates a retryable cache error.
func NewCacheOperationFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheOperationFailed,
		Message:   "Cache operation error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendInitFailedError records a failed solver backend initialization.
// It never surfaces to API callers directly; the selector exposes it through
// its diagnostic accessors.
func NewBackendInitFailedError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendInitFailed,
		Message:   "Solver backend initialization failed",
		Details:   fmt.Sprintf("backend: %s, error: %s", backend, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendExecutionFailedError records a failed solver backend run. The
// selector absorbs it by re-running the request sequentially.
func NewBackendExecutionFailedError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendExecutionFailed,
		Message:   "Solver backend execution failed",
		Details:   fmt.Sprintf("backend: %s, error: %s", backend, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewImportParseFailedError creates a non-retryable import parse error.
func NewImportParseFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeImportParseFailed,
		Message:   "Game data import failed to parse",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for infrastructure calls.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed:
		return 3 // Retryable technical errors

	case ErrCodeBackendExecutionFailed:
		return 1 // One sequential re-run via the selector

	default:
		return 0 // Validation and lookup errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "BACKEND"):
		return "ENGINE"
	case strings.Contains(codeStr, "IMPORT"):
		return "IMPORT"
	default:
		return "OTHER"
	}
}
