// Package webhook receives signed delivery events from the email provider.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader is the request header carrying the provider signature.
const SignatureHeader = "Resend-Signature"

// ErrInvalidSignature covers malformed headers and digest mismatches alike so
// callers cannot distinguish the two failure modes.
var ErrInvalidSignature = errors.New("invalid signature")

// VerifySignature checks a header of the form "t=<timestamp>,v1=<hexSignature>"
// against the raw request body. The digest is HMAC-SHA256 over
// "<timestamp>.<rawBody>", computed on the exact bytes received: the provider
// signs its serialization, and re-serializing is not guaranteed to reproduce
// it byte for byte. Comparison is constant-time.
func VerifySignature(secret []byte, header string, rawBody []byte) error {
	var timestamp, sigHex string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return ErrInvalidSignature
		}
		switch strings.TrimSpace(key) {
		case "t":
			timestamp = strings.TrimSpace(value)
		case "v1":
			sigHex = strings.TrimSpace(value)
		}
	}
	if timestamp == "" || sigHex == "" {
		return ErrInvalidSignature
	}

	provided, err := hex.DecodeString(sigHex)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte{'.'})
	_, _ = mac.Write(rawBody)

	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrInvalidSignature
	}
	return nil
}
