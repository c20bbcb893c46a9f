// Package errors provides standardized error handling for BPMN workflow integration.
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
	ErrCodeInvalidPreferences    ErrorCode = "INVALID_PREFERENCES"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidSession        ErrorCode = "INVALID_SESSION"
	ErrCodeAnswerAlreadyRecorded ErrorCode = "ANSWER_ALREADY_RECORDED"

	ErrCodeProviderCallFailed ErrorCode = "PROVIDER_CALL_FAILED"
	ErrCodeProviderTimeout    ErrorCode = "PROVIDER_TIMEOUT"

	ErrCodeEnrichmentFailed         ErrorCode = "ENRICHMENT_FAILED"
	ErrCodeRecommendationFailed     ErrorCode = "RECOMMENDATION_FAILED"
	ErrCodeQuestionGenerationFailed ErrorCode = "QUESTION_GENERATION_FAILED"

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
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidPreferencesError is returned when user preferences cannot drive the pipeline.
func NewInvalidPreferencesError(details string) *StandardError {
	return newError(ErrCodeInvalidPreferences, "Invalid user preferences", details, false, nil)
}

// NewInvalidInputError wraps schema or decode failures of job variables.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false, nil)
}

// NewInvalidSessionError flags a malformed interview session.
func NewInvalidSessionError(details string) *StandardError {
	return newError(ErrCodeInvalidSession, "Invalid interview session", details, false, nil)
}

// NewAnswerAlreadyRecordedError is returned when an answer would overwrite an earlier one.
func NewAnswerAlreadyRecordedError(questionID string) *StandardError {
	return newError(ErrCodeAnswerAlreadyRecorded, "Answer already recorded",
		fmt.Sprintf("questionId: %s", questionID), false, nil)
}

// NewProviderCallFailedError is a retryable upstream provider failure.
func NewProviderCallFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeProviderCallFailed, fmt.Sprintf("Provider '%s' call failed", provider),
		err.Error(), true, err)
}

// NewProviderTimeoutError is a retryable upstream provider timeout.
func NewProviderTimeoutError(provider string, err error) *StandardError {
	return newError(ErrCodeProviderTimeout, fmt.Sprintf("Provider '%s' timeout", provider),
		err.Error(), true, err)
}

// NewEnrichmentFailedError covers a whole enrichment batch failing.
func NewEnrichmentFailedError(err error) *StandardError {
	return newError(ErrCodeEnrichmentFailed, "Destination enrichment failed", err.Error(), true, err)
}

// NewRecommendationFailedError covers unexpected processor failures.
func NewRecommendationFailedError(err error) *StandardError {
	return newError(ErrCodeRecommendationFailed, "Recommendation processing failed", err.Error(), false, err)
}

// NewQuestionGenerationFailedError covers adaptive question generation failures.
func NewQuestionGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeQuestionGenerationFailed, "Adaptive question generation failed", err.Error(), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidPreferences:       "INVALID_PREFERENCES",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeInvalidSession:           "INVALID_SESSION",
	ErrCodeAnswerAlreadyRecorded:    "ANSWER_ALREADY_RECORDED",
	ErrCodeProviderCallFailed:       "PROVIDER_CALL_FAILED",
	ErrCodeProviderTimeout:          "PROVIDER_TIMEOUT",
	ErrCodeEnrichmentFailed:         "ENRICHMENT_FAILED",
	ErrCodeRecommendationFailed:     "RECOMMENDATION_FAILED",
	ErrCodeQuestionGenerationFailed: "QUESTION_GENERATION_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderCallFailed,
		ErrCodeEnrichmentFailed:
		return 3

	case ErrCodeProviderTimeout,
		ErrCodeQuestionGenerationFailed:
		return 1

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "ANSWER") || strings.Contains(codeStr, "QUESTION"):
		return "INTERVIEW"
	case strings.Contains(codeStr, "ENRICHMENT") || strings.Contains(codeStr, "RECOMMENDATION"):
		return "PIPELINE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
