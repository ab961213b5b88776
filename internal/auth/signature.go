package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader is the request header carrying the body signature.
const SignatureHeader = "X-Hub-Signature-256"

// signaturePrefix identifies the digest algorithm in the header value.
const signaturePrefix = "sha256="

// Sign computes the signature header value for body under secret:
// "sha256=" followed by the hex HMAC-SHA256 digest.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the header-supplied signature against the
// HMAC of the exact raw body. It fails closed: an empty body, missing
// header, wrong prefix, or digest mismatch are all rejected. The
// comparison is constant-time.
func VerifySignature(body []byte, header, secret string) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if header == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return fmt.Errorf("%w: unexpected format", ErrInvalidSignature)
	}

	expected := Sign(body, secret)
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
