package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError reports a service that could not be reached or did not answer
// in time.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request was aborted by a deadline.
func (e *NetworkError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ServiceError reports a failure status or a response body that could not be
// read as a completion.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("service error (status %d): %s", e.StatusCode, msg)
	}
	return "service error: " + msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsNetworkError checks if an error is a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func classifyReadError(url string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{URL: url, Err: err}
	}
	return &ServiceError{Message: "decoding response", Err: err}
}
