package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single request once it is dispatched.
	DefaultTimeout = 5 * time.Second
	// DefaultRequestInterval is the minimum pause between two requests to the device.
	DefaultRequestInterval = time.Second
	// DefaultChargeLogLength is used by ChargeLog when length is zero.
	DefaultChargeLogLength = 10

	// maxErrBodySize caps the amount of response body read when
	// building an error for an unexpected status code.
	maxErrBodySize = 4 << 10 // 4KB
)

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrMissingHost is returned by [New] when no device host is given.
	ErrMissingHost = errors.New("device host must not be empty")
)

// UnexpectedStatusError is returned when the device answers with a
// status other than 200 OK.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
