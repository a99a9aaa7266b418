package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256Signer(t *testing.T) {
	signer := HMACSHA256Signer{}

	t.Run("should match the RFC 4231 style reference digest", func(t *testing.T) {
		// HMAC-SHA-256("key", "The quick brown fox jumps over the lazy dog")
		token, err := signer.Sign("key", []byte("The quick brown fox jumps over the lazy dog"))
		require.NoError(t, err)
		assert.Equal(t, "97yD9DBThCSxMpjmqm+xQ+9NWaFJRhdZl0edvC0aPNg=", token)
	})

	t.Run("should verify its own tokens", func(t *testing.T) {
		payload := []byte(`[{"category":"design"}]`)
		token, err := signer.Sign("secret", payload)
		require.NoError(t, err)

		assert.True(t, signer.Verify("secret", payload, token))
		assert.False(t, signer.Verify("other", payload, token))
		assert.False(t, signer.Verify("secret", []byte(`[{"category":"user"}]`), token))
	})

	t.Run("should refuse an empty secret", func(t *testing.T) {
		_, err := signer.Sign("", []byte("x"))
		require.Error(t, err)
		assert.False(t, signer.Verify("", []byte("x"), ""))
	})
}
