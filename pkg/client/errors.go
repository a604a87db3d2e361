package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrExecutionTimeExceeded matches errors raised when ServiceNOW cancelled
	// the transaction because it ran past its execution time budget.
	ErrExecutionTimeExceeded = errors.New("maximum execution time exceeded")

	// ErrRequestFailed matches terminal non-success HTTP responses.
	ErrRequestFailed = errors.New("request failed")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrNoCredentials is returned when no username or password could be resolved.
	ErrNoCredentials = errors.New("no credentials configured")
)

// ErrorClass represents a classification of a failed table API call.
type ErrorClass string

const (
	// ErrorClassExecutionTimeExceeded represents a transaction cancelled by
	// the server's execution time limit. Retryable.
	ErrorClassExecutionTimeExceeded ErrorClass = "execution_time_exceeded"

	// ErrorClassRequestFailed represents any other non-success response.
	ErrorClassRequestFailed ErrorClass = "request_failed"

	// ErrorClassNetwork represents transport failures (no response).
	ErrorClassNetwork ErrorClass = "network"
)

// ServiceNowError represents a failed table API call with additional context.
type ServiceNowError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ServiceNowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ServiceNOW %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("ServiceNOW %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ServiceNowError) Unwrap() error {
	return e.Err
}

// Is matches the class sentinels.
func (e *ServiceNowError) Is(target error) bool {
	switch target {
	case ErrExecutionTimeExceeded:
		return e.ErrorClass == ErrorClassExecutionTimeExceeded
	case ErrRequestFailed:
		return e.ErrorClass == ErrorClassRequestFailed
	default:
		return false
	}
}

// newStatusError builds the error for a non-success response, classified by
// message. An empty message falls back to the status text.
func newStatusError(resp *Response, message string) *ServiceNowError {
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	errorClass := ClassifyMessage(message)
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &ServiceNowError{
		StatusCode: statusCode,
		ErrorClass: errorClass,
		Message:    message,
	}
}

// errorClassOf returns the class carried by err, or "" when err is not a
// ServiceNowError.
func errorClassOf(err error) ErrorClass {
	var snErr *ServiceNowError
	if errors.As(err, &snErr) {
		return snErr.ErrorClass
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassExecutionTimeExceeded:
		// Server cancelled a slow transaction - retry after a pause
		return true
	case ErrorClassRequestFailed:
		return false
	case ErrorClassNetwork:
		return false
	default:
		return false
	}
}
