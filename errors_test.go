package gameanalytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Error(t *testing.T) {
	assert.Equal(t, "HTTP request failed with status 500", (&TransportError{Status: 500}).Error())

	cause := errors.New("connection reset")
	err := &TransportError{Err: cause}
	assert.Equal(t, "HTTP request failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestProtocolError_Error(t *testing.T) {
	assert.Equal(t, "invalid init response: empty body", (&ProtocolError{Route: RouteInit, Reason: "empty body"}).Error())

	cause := errors.New("unexpected EOF")
	err := &ProtocolError{Route: RouteEvents, Reason: "malformed JSON", Err: cause}
	assert.Equal(t, "invalid events response: malformed JSON: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSigningError_Error(t *testing.T) {
	cause := errors.New("secret key is required")
	err := &SigningError{Err: cause}
	assert.Equal(t, "failed to sign payload: secret key is required", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestReservedFieldError_Error(t *testing.T) {
	assert.Equal(t, `field "client_ts" is reserved for base annotations`, (&ReservedFieldError{Field: "client_ts"}).Error())
}

func TestInvalidFieldError_Error(t *testing.T) {
	err := &InvalidFieldError{Field: "amount", Reason: "integer 9007199254740993 is outside the exact JSON number range"}
	assert.Equal(t, `invalid field "amount": integer 9007199254740993 is outside the exact JSON number range`, err.Error())
}
