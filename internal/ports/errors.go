package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors for external service interactions.
var (
	// ErrRateLimited indicates that the service has rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates that the service returned a response
	// the client could not parse.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAuthenticationFailed indicates that authentication with the
	// service failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAlgorithmNotFound indicates that the service does not know the
	// requested algorithm.
	ErrAlgorithmNotFound = errors.New("algorithm not found")

	// ErrCircuitOpen indicates that the circuit breaker is rejecting
	// calls after repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrCacheCorrupted indicates that cached data is corrupted or invalid.
	ErrCacheCorrupted = errors.New("cache corrupted")
)

// DetectionError represents an error from the detection service.
// It carries enough context to log, classify, and decide retry behavior
// below the engine boundary.
type DetectionError struct {
	// Provider identifies the backing inference provider.
	Provider string

	// AlgorithmID is the algorithm whose invocation failed.
	AlgorithmID string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error that occurred.
	Err error

	// RetryAfter indicates how long to wait before retrying, if the
	// service said so.
	RetryAfter *time.Duration
}

// Error implements the error interface for DetectionError.
func (e *DetectionError) Error() string {
	msg := fmt.Sprintf("detection error: provider=%s, algorithm=%s, operation=%s, err=%v",
		e.Provider, e.AlgorithmID, e.Operation, e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DetectionError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the call could
// succeed on retry. Logic errors such as an unknown algorithm are not
// retryable.
func (e *DetectionError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewDetectionError creates a DetectionError with the given details.
func NewDetectionError(provider, algorithmID, operation string, err error) *DetectionError {
	return &DetectionError{
		Provider:    provider,
		AlgorithmID: algorithmID,
		Operation:   operation,
		Err:         err,
	}
}

// CacheError represents an error from cache operations.
type CacheError struct {
	// Key is the cache key involved in the failed operation.
	Key string

	// Operation is the cache operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for CacheError.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheError) Unwrap() error { return e.Err }
