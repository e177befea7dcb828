package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response for the transports
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCache          = "CACHE_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrNotFound       = "NOT_FOUND"
)

// ValidationError represents a malformed input field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors gathers every violation found in one input so the caller
// can fix them in a single round trip.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// OrNil returns nil for an empty list so callers can return it directly.
func (errs ValidationErrors) OrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// MissingDependencyWarning reports a recommendation rule that was skipped
// because an upstream value it needs was absent. It is non-fatal.
type MissingDependencyWarning struct {
	RuleID     string     `json:"ruleId"`
	Dependency Dependency `json:"dependency"`
}

func (w MissingDependencyWarning) String() string {
	return fmt.Sprintf("rule %s skipped: missing %s", w.RuleID, w.Dependency)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
