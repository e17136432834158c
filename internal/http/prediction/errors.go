package prediction

import (
	"errors"
	"fmt"
)

// ErrTransport is matched (via errors.Is) by every error returned from
// Submit. A transport error means no usable response was obtained.
var ErrTransport = errors.New("prediction request failed")

type (
	// FailedRequestError is returned when the prediction API
	// responds with a non-2xx status code.
	FailedRequestError struct {
		StatusCode int
		Body       string
	}

	// UnknownRequestError is returned when the request could not be
	// performed, or its response could not be understood.
	UnknownRequestError struct {
		reason string
		err    error
	}
)

func (err *FailedRequestError) Error() string {
	return fmt.Sprintf("request failure (HTTP %d): %s", err.StatusCode, err.Body)
}
func (err *FailedRequestError) Is(target error) bool { return target == ErrTransport }

func (err *UnknownRequestError) Error() string {
	if err.err != nil {
		return fmt.Sprintf("unknown error occurred while communicating with prediction API: %s: %v", err.reason, err.err)
	}

	return fmt.Sprintf("unknown error occurred while communicating with prediction API: %s", err.reason)
}
func (err *UnknownRequestError) Is(target error) bool { return target == ErrTransport }
func (err *UnknownRequestError) Unwrap() error        { return err.err }
