package adapters

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Signer computes the authentication token sent in the Authorization header.
// The token must be computed over the exact request body bytes.
type Signer interface {
	Sign(secretKey string, payload []byte) (string, error)
}

// HMACSHA256Signer signs with HMAC-SHA-256 and encodes the digest as standard base64.
type HMACSHA256Signer struct{}

// Ensure HMACSHA256Signer implements Signer interface
var _ Signer = HMACSHA256Signer{}

// Sign returns base64(HMAC-SHA-256(secretKey, payload)).
func (HMACSHA256Signer) Sign(secretKey string, payload []byte) (string, error) {
	if secretKey == "" {
		return "", errors.New("secret key is required")
	}
	mac := hmac.New(sha256.New, []byte(secretKey))
	_, _ = mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether token is the signature of payload under secretKey.
func (s HMACSHA256Signer) Verify(secretKey string, payload []byte, token string) bool {
	expected, err := s.Sign(secretKey, payload)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
