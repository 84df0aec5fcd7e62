package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeTemporalCoherence ErrorType = "temporal_coherence"
	ErrorTypeQualityAnalysis   ErrorType = "quality_analysis"
	ErrorTypeMetricCalculation ErrorType = "metric_calculation"
	ErrorTypeImageProcessing   ErrorType = "image_processing"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`

	// SupportedFormats is filled for unsupported format errors
	SupportedFormats []string `json:"supported_formats,omitempty"`
	// Score is the offending coherence score for temporal coherence errors
	Score float64 `json:"score,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches free-form details and returns e
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewUnsupportedFormatError reports an unknown grid format and lists the valid ones
func NewUnsupportedFormatError(format string, supported []string) *AppError {
	e := newError(ErrorTypeUnsupportedFormat, http.StatusBadRequest,
		fmt.Sprintf("unsupported grid format %q", format), nil)
	e.SupportedFormats = supported
	return e
}

// NewConfigurationError creates an error for invalid preference or config values
func NewConfigurationError(message string, cause error) *AppError {
	return newError(ErrorTypeConfiguration, http.StatusBadRequest, message, cause)
}

// NewTemporalCoherenceError is returned when a sequence is too incoherent to keep
func NewTemporalCoherenceError(score, minimum float64) *AppError {
	e := newError(ErrorTypeTemporalCoherence, http.StatusUnprocessableEntity,
		fmt.Sprintf("temporal coherence %.3f is below the minimum of %.2f; re-render required", score, minimum), nil)
	e.Score = score
	return e
}

// NewQualityAnalysisError creates a quality analysis error
func NewQualityAnalysisError(message string, cause error) *AppError {
	return newError(ErrorTypeQualityAnalysis, http.StatusUnprocessableEntity, message, cause)
}

// NewMetricCalculationError creates a metric calculation error
func NewMetricCalculationError(message string, cause error) *AppError {
	return newError(ErrorTypeMetricCalculation, http.StatusUnprocessableEntity, message, cause)
}

// NewImageProcessingError creates an image processing error
func NewImageProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeImageProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if err, or any error it wraps, is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
