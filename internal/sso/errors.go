package sso

import (
	"fmt"
	"strings"
)

// FailureKind classifies why a callback was rejected. Every failure is
// terminal: the IdP (or user) must restart the login flow from scratch.
type FailureKind string

const (
	KindMissingParameter    FailureKind = "missing_parameter"
	KindUnsupportedIdP      FailureKind = "unsupported_identity_provider"
	KindMalformedAssertion  FailureKind = "malformed_user_assertion"
	KindIncompleteAssertion FailureKind = "incomplete_user_assertion"
	KindInactiveAccount     FailureKind = "inactive_account"
	KindExpiredCallback     FailureKind = "expired_callback"
	KindUntrustedSource     FailureKind = "untrusted_source"
	KindInternalFailure     FailureKind = "internal_failure"
)

// CallbackError is the caller-facing rejection for a failed callback stage.
// Message is safe to return to the user agent verbatim; internal detail
// stays in the server log.
type CallbackError struct {
	Kind    FailureKind
	Message string
}

func (e *CallbackError) Error() string {
	return e.Message
}

func errMissingParameters(fields []string) *CallbackError {
	return &CallbackError{
		Kind:    KindMissingParameter,
		Message: fmt.Sprintf("missing required parameters: %s", strings.Join(fields, ", ")),
	}
}

func errUnsupportedIdP(got string) *CallbackError {
	return &CallbackError{
		Kind:    KindUnsupportedIdP,
		Message: fmt.Sprintf("unsupported identity provider %q", got),
	}
}

func errMalformedAssertion() *CallbackError {
	return &CallbackError{
		Kind:    KindMalformedAssertion,
		Message: "user_info is not a valid JSON object",
	}
}

func errIncompleteAssertion(fields []string) *CallbackError {
	return &CallbackError{
		Kind:    KindIncompleteAssertion,
		Message: fmt.Sprintf("user assertion missing required fields: %s", strings.Join(fields, ", ")),
	}
}

func errInactiveAccount(status string) *CallbackError {
	return &CallbackError{
		Kind:    KindInactiveAccount,
		Message: fmt.Sprintf("account status %q does not permit login", status),
	}
}

func errExpiredCallback() *CallbackError {
	return &CallbackError{
		Kind:    KindExpiredCallback,
		Message: "callback timestamp is outside the allowed freshness window",
	}
}

func errUntrustedSource() *CallbackError {
	return &CallbackError{
		Kind:    KindUntrustedSource,
		Message: "callback source verification failed",
	}
}

// ErrInternalFailure is the generic message surfaced for unexpected errors.
// The underlying cause is logged server-side, never returned to the caller.
var ErrInternalFailure = &CallbackError{
	Kind:    KindInternalFailure,
	Message: "an internal error occurred while processing the login callback",
}
