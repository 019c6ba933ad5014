package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the prediction pipeline and storage
var (
	ErrNotFound          = errors.New("not found")
	ErrMissingAssessment = errors.New("no assessment recorded")
	ErrPreprocessing     = errors.New("feature preprocessing failed")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrNoData            = errors.New("no assessment data available for patient")
	ErrPersistence       = errors.New("saving prediction failed")
	ErrInvalidThresholds = errors.New("invalid risk thresholds")
	ErrValidation        = errors.New("validation failed")
	ErrUnknownDisease    = errors.New("unknown disease")
	ErrDuplicate         = errors.New("already exists")
)

// Stage names the pipeline step a DiseaseError came from
type Stage string

const (
	StageBuild    Stage = "build"
	StagePredict  Stage = "predict"
	StageClassify Stage = "classify"
)

// DiseaseError is a failure scoped to a single disease of a run
type DiseaseError struct {
	Disease Disease
	Stage   Stage
	Err     error
}

func (e *DiseaseError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Disease, e.Stage, e.Err)
}

func (e *DiseaseError) Unwrap() error { return e.Err }

// APIError represents a standardized error response
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
	CodeInvalidInput   = "INVALID_INPUT"
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeNoData         = "NO_DATA"
	CodePersistence    = "PERSISTENCE_ERROR"
	CodeInternalServer = "INTERNAL_SERVER_ERROR"
)

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

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match ErrValidation with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
