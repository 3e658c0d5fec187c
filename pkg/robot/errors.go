package robot

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrUnreachable is returned when the request never got a response.
	ErrUnreachable = errors.New("robot: actuator unreachable")

	// ErrBadReply is returned when a 200 reply cannot be decoded.
	ErrBadReply = errors.New("robot: malformed reply")
)

// StatusError is a non-200 reply from the actuator.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Endpoint is the path that was called.
	Endpoint string

	// Body is the (truncated) response body.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("robot: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("robot: %s returned %d", e.Endpoint, e.StatusCode)
}

// IsServerError returns true if the actuator failed internally (HTTP 5xx).
func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
