package sso

import (
	"encoding/json"

	"github.com/metaforge/ssobridge/internal/models"
)

// ParseEnvelope normalizes a raw callback payload into a CallbackEnvelope.
// The payload is a field-to-value mapping: flat fields are strings, while
// verify and user_info may arrive either as JSON-encoded strings or as
// already-decoded objects depending on how the broker posts the callback.
// Parse failures here are never fatal. An undecodable verify is carried as
// absent so the missing-parameter check reports both proof fields; garbled
// user_info string content is carried through for the assertion decoder to
// reject as malformed.
func ParseEnvelope(payload map[string]any) *models.CallbackEnvelope {
	env := &models.CallbackEnvelope{
		IdP:          stringField(payload, "idp"),
		AccessToken:  stringField(payload, "access_token"),
		RefreshToken: stringField(payload, "refresh_token"),
		TokenType:    stringField(payload, "token_type"),
		ExpiresIn:    stringField(payload, "expires_in"),
		State:        stringField(payload, "state"),
	}

	env.UserInfo = objectField(payload, "user_info")

	if raw := objectField(payload, "verify"); raw != nil {
		var proof models.VerificationProof
		if err := json.Unmarshal(raw, &proof); err == nil {
			env.Proof = &proof
		}
	}

	return env
}

// stringField returns the payload field as a string, or "" when absent or
// not a string.
func stringField(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// objectField normalizes a field that may be a JSON-encoded string or an
// already-decoded object into raw JSON. Returns nil when the field is
// absent or empty. String content is carried through undecoded: whether it
// parses into anything usable is the consumer's judgement, so a present
// but garbled value is reported as malformed rather than missing.
func objectField(payload map[string]any, key string) json.RawMessage {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}

	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return json.RawMessage(val)
	case map[string]any:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return raw
	default:
		return nil
	}
}

// missingParameters returns the required fields absent from the envelope,
// in the wire order the protocol documents them. Nested proof fields are
// reported as verify.timestamp / verify.public_secret; a missing or
// undecodable verify object reports both.
func missingParameters(env *models.CallbackEnvelope) []string {
	var missing []string

	if env.IdP == "" {
		missing = append(missing, "idp")
	}
	if env.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if env.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if env.TokenType == "" {
		missing = append(missing, "token_type")
	}
	if env.ExpiresIn == "" {
		missing = append(missing, "expires_in")
	}
	if env.UserInfo == nil {
		missing = append(missing, "user_info")
	}

	if env.Proof == nil {
		missing = append(missing, "verify.timestamp", "verify.public_secret")
	} else {
		if env.Proof.Timestamp == "" {
			missing = append(missing, "verify.timestamp")
		}
		if env.Proof.PublicSecret == "" {
			missing = append(missing, "verify.public_secret")
		}
	}

	return missing
}
