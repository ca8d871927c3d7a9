package models

import "time"

// SessionRecord is the side-store entry written when a session credential is
// issued. The credential itself is self-contained; these records exist for
// enumeration, early revocation, and count-based observability.
type SessionRecord struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	IdP       string    `json:"idp"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// Expired reports whether the record's credential has aged out.
func (r *SessionRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
