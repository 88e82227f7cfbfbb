package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// Common errors returned by detection backends.
var (
	// ErrEmptyEndpoint indicates that a backend requiring a service
	// endpoint was configured without one.
	ErrEmptyEndpoint = errors.New("endpoint cannot be empty")

	// ErrEmptyResponse indicates that the inference service returned an
	// empty or nil response body.
	ErrEmptyResponse = errors.New("empty response from inference service")

	// ErrMissingImage indicates that a request carried neither an image
	// reference nor raw image bytes.
	ErrMissingImage = errors.New("request carries no image reference or bytes")

	// ErrUnknownAlgorithm indicates that the backend has no data or
	// model for the requested algorithm id.
	ErrUnknownAlgorithm = errors.New("unknown algorithm id")
)

// ErrorClassifier standardizes backend-specific failures into
// ports.DetectionError values. It uses context such as HTTP status
// codes to pick the right sentinel, which drives retryability.
type ErrorClassifier struct {
	// Provider is the backend name stamped onto classified errors.
	Provider string
}

// ClassifyHTTPError builds a DetectionError from an HTTP status code.
// The retryAfter hint, when positive, is attached so retry layers can
// honor the service's pacing.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, algorithmID string, retryAfter time.Duration, err error) *ports.DetectionError {
	var sentinel error
	switch {
	case statusCode == 401 || statusCode == 403:
		sentinel = ports.ErrAuthenticationFailed
	case statusCode == 404:
		sentinel = ports.ErrAlgorithmNotFound
	case statusCode == 429:
		sentinel = ports.ErrRateLimited
	case statusCode >= 500:
		sentinel = ports.ErrServiceUnavailable
	default:
		sentinel = fmt.Errorf("unexpected status %d", statusCode)
	}

	wrapped := sentinel
	if err != nil {
		wrapped = fmt.Errorf("%w: %v", sentinel, err)
	}

	de := ports.NewDetectionError(ec.Provider, algorithmID, "detect", wrapped)
	if retryAfter > 0 {
		de.RetryAfter = &retryAfter
	}
	return de
}

// ClassifyContextError builds a DetectionError from a context failure.
// Deadline expiry maps to the timeout sentinel; caller cancellation is
// passed through unclassified so it is never treated as retryable.
func (ec *ErrorClassifier) ClassifyContextError(algorithmID string, err error) *ports.DetectionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ports.NewDetectionError(ec.Provider, algorithmID, "detect",
			fmt.Errorf("%w: %v", ports.ErrTimeout, err))
	default:
		return ports.NewDetectionError(ec.Provider, algorithmID, "detect", err)
	}
}

// ClassifyDecodeError builds a DetectionError for a response the client
// could not parse.
func (ec *ErrorClassifier) ClassifyDecodeError(algorithmID string, err error) *ports.DetectionError {
	return ports.NewDetectionError(ec.Provider, algorithmID, "detect",
		fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err))
}
