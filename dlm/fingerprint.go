package dlm

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// fingerprintBytes is the amount of entropy drawn per fingerprint: 16
// bytes (128 bits) hex-encoded into 32 printable characters, comfortably
// over spec.md §2's 22-character floor.
const fingerprintBytes = 16

// NewFingerprint returns a fresh, unpredictable, printable token used as
// the value written to every node for one lock attempt. Two invocations in
// the same process return distinct values with overwhelming probability.
//
// Mirrors the teacher's redis.generateOwner: crypto/rand with a
// timestamp-based fallback so a failure of the OS entropy source never
// panics an acquire call outright (the fallback still keeps attempts from
// different processes apart in practice, though it is not
// cryptographically unpredictable).
func NewFingerprint() string {
	b := make([]byte, fingerprintBytes)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}
