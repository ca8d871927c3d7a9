package models

import "encoding/json"

// CallbackEnvelope is the normalized inbound callback body. The raw request
// arrives as a flat field mapping; the nested verify and user_info fields may
// be JSON-encoded strings or already-decoded objects, so the parser carries
// them as raw JSON for the downstream stages to decode.
type CallbackEnvelope struct {
	IdP          string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    string
	State        string
	UserInfo     json.RawMessage // nil when user_info was absent
	Proof        *VerificationProof
}

// VerificationProof is the provenance proof extracted from the verify field.
// PublicSecret is a one-way keyed digest of Timestamp concatenated with the
// shared salt; only the trusted broker can produce it.
type VerificationProof struct {
	Timestamp    string `json:"timestamp"` // stringified epoch milliseconds
	PublicSecret string `json:"public_secret"`
}

// UserAssertion is the decoded user_info payload asserted by the IdP.
type UserAssertion struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	Status       string `json:"status"`
}

// StatusActive is the only account status accepted at login time. All other
// values (DISABLED, LOCKED, ...) are valid account states but are rejected.
const StatusActive = "ACTIVE"

// UpstreamTokenBundle carries the IdP-issued tokens inside the session
// credential. Opaque to this service; it is replayed against the IdP later.
type UpstreamTokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	State        string `json:"state,omitempty"`
}

// LoginResult is the outcome of a successful callback: the signed session
// credential plus the normalized user attributes for the redirect payload.
type LoginResult struct {
	Token string         `json:"token"`
	User  *UserAssertion `json:"user"`
	JTI   string         `json:"-"`
}
