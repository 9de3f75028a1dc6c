package api

import (
	"errors"
	"fmt"
)

// RemoteError is returned when a remote API answers with a non-2xx status.
type RemoteError struct {
	StatusCode int
	Status     string
}

func (e *RemoteError) Error() string {
	if e.Status != "" {
		return "unexpected status code: " + e.Status
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// TransportError is returned when no response could be obtained.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is returned when a response body is malformed or lacks a
// required field.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsRemoteFailure reports whether err is a remote, transport or parse error.
func IsRemoteFailure(err error) bool {
	var remote *RemoteError
	var transport *TransportError
	var parse *ParseError
	return errors.As(err, &remote) || errors.As(err, &transport) || errors.As(err, &parse)
}
