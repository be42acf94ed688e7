// Package webhook verifies and applies provider event notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/go-faster/errors"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Shipping-Signature"

const signaturePrefix = "sha256="

var (
	// ErrNoSecret is returned when no webhook secret is configured. Every
	// request is rejected in that case.
	ErrNoSecret = errors.New("webhook secret not configured")
	// ErrInvalidSignature is returned for missing, malformed or wrong
	// signatures.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Sign returns the hex signature of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against body. The signature may carry a
// "sha256=" prefix. Comparison is constant-time.
func Verify(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return ErrNoSecret
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix)
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if subtle.ConstantTimeCompare(mac.Sum(nil), got) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
