package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex-encoded HMAC-SHA256 signature of payload under
// secret. Mirrors the signing scheme used by the payment provider.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature authenticates payload under secret.
//
// The signature must be computed over the exact raw request bytes: callers
// must capture the body before any JSON parsing middleware runs, since
// re-serialization can change whitespace and invalidate the signature.
//
// Verify never fails with an error; any malformed input, including a
// signature that does not hex-decode, yields false. Comparison is done in
// constant time over the decoded digests.
func Verify(secret string, payload []byte, signature string) bool {
	if secret == "" || len(payload) == 0 || signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hmac.Equal(h.Sum(nil), provided)
}
