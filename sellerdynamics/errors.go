package sellerdynamics

import (
	"errors"
	"fmt"
)

var (
	// ErrFirstPageFailed is returned when the first page of a paginated
	// fetch could not be retrieved.
	ErrFirstPageFailed = errors.New("first page fetch failed")

	// ErrNotConfigured is returned when the endpoint or credentials are missing.
	ErrNotConfigured = errors.New("upstream integration not configured")

	errUnknownAction = errors.New("Server did not recognize the value of HTTP Header SOAPAction")
)

// TransportError means every attempt to reach the endpoint failed.
type TransportError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Operation, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError carries a business error reported inside a SOAP result.
type ProtocolError struct {
	Operation string
	Message   string
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s returned an error: %s", e.Operation, msg)
}

// ParseError means a response body could not be read as the expected XML.
type ParseError struct {
	Operation string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("parse response: %v", e.Err)
	}
	return fmt.Sprintf("parse %s response: %v", e.Operation, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with %s", e.Status)
}
