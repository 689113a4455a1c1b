package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// RequestError describes a failed call to the jobs API.
type RequestError struct {
	Op         string // "list jobs", "get job", "get summary"
	StatusCode int    // 0 when the request never got a response
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: api returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed: transport
// failures, timeouts, 429 and 5xx.
func (e *RequestError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	// no response at all: network failure or timeout, unless the caller
	// gave up on purpose
	return !errors.Is(e.Err, context.Canceled)
}

// IsRetryable reports whether err is a retryable gateway failure.
func IsRetryable(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Retryable()
}
