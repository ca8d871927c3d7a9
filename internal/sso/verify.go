package sso

import (
	"errors"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/metaforge/ssobridge/internal/models"
)

// VerifyProof reports whether the proof's public_secret is a valid bcrypt
// digest of timestamp + salt. The broker and this service share only the
// salt, so verification is one-sided: a bcrypt comparison is cheap for the
// holder of a genuine digest but expensive to forge for an attacker-chosen
// timestamp.
//
// The bool is the verification verdict; a non-nil error means the
// verification machinery itself failed (malformed digest, unsupported cost)
// rather than a plain mismatch. Callers at the boundary treat both as
// rejection.
func VerifyProof(proof *models.VerificationProof, salt string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(
		[]byte(proof.PublicSecret),
		[]byte(proof.Timestamp+salt),
	)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// IsExpired reports whether a callback timestamp has aged out of the
// freshness window. Timestamps in the future relative to now are accepted:
// the window is asymmetric, tolerating clock skew on the broker side.
func IsExpired(timestampMillis, nowMillis int64, window time.Duration) bool {
	return nowMillis-timestampMillis > window.Milliseconds()
}

// parseTimestamp converts the proof's stringified epoch-millisecond
// timestamp. A value that cannot be read cannot be shown to lie inside the
// window, so callers reject it as expired (fail closed).
func parseTimestamp(s string) (int64, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
