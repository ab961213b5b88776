package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	t.Parallel()

	// Known HMAC-SHA256 vector: key "key", message "The quick brown
	// fox jumps over the lazy dog".
	got := Sign([]byte("The quick brown fox jumps over the lazy dog"), "key")
	assert.Equal(t,
		"sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		got)
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"title":"hello"}`)
	const secret = "s3cret"

	t.Run("accepts matching signature", func(t *testing.T) {
		header := Sign(body, secret)
		assert.NoError(t, VerifySignature(body, header, secret))
	})

	t.Run("rejects empty body", func(t *testing.T) {
		header := Sign(body, secret)
		assert.ErrorIs(t, VerifySignature(nil, header, secret), ErrEmptyBody)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(body, "", secret), ErrMissingSignature)
	})

	t.Run("rejects wrong prefix", func(t *testing.T) {
		err := VerifySignature(body, "sha1=deadbeef", secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		header := Sign(body, secret)
		err := VerifySignature([]byte(`{"title":"tampered"}`), header, secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		header := Sign(body, "other-secret")
		assert.ErrorIs(t, VerifySignature(body, header, secret), ErrInvalidSignature)
	})
}
