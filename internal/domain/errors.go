package domain

import (
	"fmt"
	"time"
)

// AnalysisError is the error body returned by the HTTP API and MCP tools.
type AnalysisError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Codes carried in AnalysisError.Code and Analysis.ErrorCode.
const (
	ErrMissingInput         = "MISSING_INPUT"
	ErrUnresolvedDiagnosis  = "UNRESOLVED_DIAGNOSIS"
	ErrMalformedKnowledge   = "MALFORMED_KNOWLEDGE_BASE"
	ErrAnalysisFailure      = "ANALYSIS_FAILURE"
	ErrInvalidInput         = "INVALID_INPUT"
	ErrExternalAPI          = "EXTERNAL_API_ERROR"
	ErrRateLimit            = "RATE_LIMIT_EXCEEDED"
	ErrServiceNotConfigured = "SERVICE_NOT_CONFIGURED"
	ErrInternalServer       = "INTERNAL_SERVER_ERROR"
)

// ValidationError reports a patient attribute that could not be decoded.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAnalysisError stamps the error with the current UTC time.
func NewAnalysisError(code, message, details, requestID string) *AnalysisError {
	return &AnalysisError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
