package gameanalytics

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by every send and by ElapsedSeconds before a successful Init.
	ErrNotInitialized = errors.New("client not initialized. Call Init() before sending events")
	// ErrInitDisabled is returned when the collector answers the handshake with enabled=false.
	ErrInitDisabled = errors.New("collector disabled event submission for this game")
	// ErrClockUnavailable is returned when the monotonic clock cannot be sampled.
	ErrClockUnavailable = errors.New("unable to read monotonic clock")
	// ErrDisposed is returned by Go after Dispose has been called.
	ErrDisposed = errors.New("client disposed")
)

// InvalidEnumValueError reports an enum value outside its defined set.
type InvalidEnumValueError struct {
	Enum  string
	Value int
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid %s value: %d", e.Enum, e.Value)
}

// TransportError reports a network failure (Status == 0) or a non-2xx response.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP request failed with status %d", e.Status)
	}
	return fmt.Sprintf("HTTP request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response body that does not match what its route requires.
type ProtocolError struct {
	Route  Route
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s response: %s: %v", e.Route, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s response: %s", e.Route, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// SigningError wraps a failure of the Signer collaborator.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign payload: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// ReservedFieldError reports an extra field that would shadow a base annotation.
type ReservedFieldError struct {
	Field string
}

func (e *ReservedFieldError) Error() string {
	return fmt.Sprintf("field %q is reserved for base annotations", e.Field)
}

// InvalidFieldError reports a record field that cannot be sent as given.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
