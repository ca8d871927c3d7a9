package sso

import (
	"encoding/json"

	"github.com/metaforge/ssobridge/internal/models"
)

// DecodeAssertion decodes the raw user_info payload into a UserAssertion.
// Returns a MalformedUserAssertion error when the payload is not a JSON
// object.
func DecodeAssertion(raw json.RawMessage) (*models.UserAssertion, *CallbackError) {
	if raw == nil {
		return nil, errMalformedAssertion()
	}
	var assertion models.UserAssertion
	if err := json.Unmarshal(raw, &assertion); err != nil {
		return nil, errMalformedAssertion()
	}
	return &assertion, nil
}

// ValidateAssertion checks a decoded assertion against the acceptance rules,
// returning the first violated one: required identity fields present
// (missing set aggregated into one message), then account status ACTIVE.
func ValidateAssertion(assertion *models.UserAssertion) *CallbackError {
	var missing []string
	if assertion.UserID == "" {
		missing = append(missing, "user_id")
	}
	if assertion.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return errIncompleteAssertion(missing)
	}

	if assertion.Status != models.StatusActive {
		return errInactiveAccount(assertion.Status)
	}

	return nil
}
