// Package errors provides standardized error handling for the HTTP API and the
// Zeebe job worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequestBody ErrorCode = "INVALID_REQUEST_BODY"

	ErrCodeSubscriptionLookupFailed ErrorCode = "SUBSCRIPTION_LOOKUP_FAILED"
	ErrCodeSubscriptionWriteFailed  ErrorCode = "SUBSCRIPTION_WRITE_FAILED"
	ErrCodeOrderLookupFailed        ErrorCode = "ORDER_LOOKUP_FAILED"
	ErrCodeProfileLookupFailed      ErrorCode = "PROFILE_LOOKUP_FAILED"

	ErrCodePushDeliveryFailed ErrorCode = "PUSH_DELIVERY_FAILED"

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

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error code onto the response status used by the API.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatus(e.Code)
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

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestBodyError creates a non-retryable body parsing error.
func NewInvalidRequestBodyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequestBody,
		Message:   "Request body could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSubscriptionLookupFailedError creates a retryable subscription store error.
func NewSubscriptionLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscriptionLookupFailed,
		Message:   "Failed to fetch push subscriptions",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSubscriptionWriteFailedError creates a retryable subscription store write error.
func NewSubscriptionWriteFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscriptionWriteFailed,
		Message:   "Failed to update push subscription",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewOrderLookupFailedError creates a retryable order store error.
func NewOrderLookupFailedError(orderID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderLookupFailed,
		Message:   "Failed to fetch order",
		Details:   fmt.Sprintf("orderId: %s, error: %s", orderID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewProfileLookupFailedError creates a retryable profile store error.
func NewProfileLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileLookupFailed,
		Message:   "Failed to fetch user profiles",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPushDeliveryFailedError creates a non-retryable delivery error. Deliveries are
// at-most-once, so the flag stays false even for transient statuses.
func NewPushDeliveryFailedError(statusCode int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePushDeliveryFailed,
		Message:   "Push delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"statusCode": statusCode},
		Timestamp: time.Now().UTC(),
		cause:     err,
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
		cause:     err,
	}
}

// ==========================
// 4. Mappings
// ==========================

// BPMNErrorMapping maps internal codes to BPMN error codes used in the process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:         "VALIDATION_FAILED",
	ErrCodeInvalidRequestBody:       "VALIDATION_FAILED",
	ErrCodeSubscriptionLookupFailed: "SUBSCRIPTION_LOOKUP_FAILED",
	ErrCodeSubscriptionWriteFailed:  "SUBSCRIPTION_WRITE_FAILED",
	ErrCodeOrderLookupFailed:        "ORDER_LOOKUP_FAILED",
	ErrCodeProfileLookupFailed:      "PROFILE_LOOKUP_FAILED",
	ErrCodePushDeliveryFailed:       "PUSH_DELIVERY_FAILED",
	ErrCodeInternal:                 "INTERNAL_ERROR",
}

// GetRetryCount returns how many times the workflow engine should retry a job
// failing with the given code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSubscriptionLookupFailed, ErrCodeSubscriptionWriteFailed:
		return 3
	case ErrCodeOrderLookupFailed, ErrCodeProfileLookupFailed:
		return 2
	default:
		return 0
	}
}

// HTTPStatus maps an error code to an HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}

	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: stdErr.Metadata,
	}
}

// IsRetryableErrorCode reports whether the code is worth a retry by the engine.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups error codes for logging.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidRequestBody:
		return "validation"
	case ErrCodeSubscriptionLookupFailed, ErrCodeSubscriptionWriteFailed,
		ErrCodeOrderLookupFailed, ErrCodeProfileLookupFailed:
		return "infrastructure"
	case ErrCodePushDeliveryFailed:
		return "delivery"
	default:
		return "internal"
	}
}

// AsStandardError unwraps err into a *StandardError, wrapping unknown errors as internal.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}
