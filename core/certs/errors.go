package certs

import (
	"errors"
	"net/http"

	"github.com/postalsys/certs/core/acmeaccount"
	"github.com/postalsys/certs/core/challenge"
	"github.com/postalsys/certs/pkg/domains"
)

// Error is a structured failure carrying a machine code and an HTTP status
// suggestion, so the hosting server can render {error, code, details}
// responses without inspecting message text.
type Error struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails returns a copy of the error with additional context.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause returns a copy of the error wrapping an underlying cause.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

// Machine codes of the coordinator's error taxonomy.
const (
	CodeInvalidDomain      = "invalid_domain"
	CodeCAAMismatch        = "caa_mismatch"
	CodeNotFound           = "not_found"
	CodeInputValidation    = "input_validation"
	CodeChallengeNotFound  = "challenge_not_found"
	CodeChallengeFail      = "challenge_fail"
	CodeAccountUnavailable = "account_unavailable"
	CodeACMEFailure        = "acme_failure"
)

var (
	// ErrInvalidDomain rejects syntactically invalid domain names.
	ErrInvalidDomain = &Error{Status: http.StatusBadRequest, Code: CodeInvalidDomain, Message: "invalid domain name"}

	// ErrCAAMismatch rejects domains whose CAA policy forbids the
	// configured issuer.
	ErrCAAMismatch = &Error{Status: http.StatusForbidden, Code: CodeCAAMismatch, Message: "CAA policy forbids issuance"}

	// ErrNotFound rejects challenge writes for unconfigured domains.
	ErrNotFound = &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: "domain is not configured"}

	// ErrInputValidation rejects malformed dispatcher arguments; Details
	// carries the per-field reasons.
	ErrInputValidation = &Error{Status: http.StatusBadRequest, Code: CodeInputValidation, Message: "invalid request arguments"}

	// ErrChallengeNotFound reports an unknown or expired challenge token.
	ErrChallengeNotFound = &Error{Status: http.StatusNotFound, Code: CodeChallengeNotFound, Message: "challenge not found"}

	// ErrChallengeFail reports a transport failure while looking up a
	// challenge.
	ErrChallengeFail = &Error{Status: http.StatusInternalServerError, Code: CodeChallengeFail, Message: "failed to load challenge"}

	// ErrAccountUnavailable reports that the CA account could not be
	// provisioned; callers should degrade rather than crash.
	ErrAccountUnavailable = &Error{Status: http.StatusServiceUnavailable, Code: CodeAccountUnavailable, Message: "ACME account unavailable"}
)

// classify maps an arbitrary error onto the taxonomy, preserving the
// original as the cause.
func classify(err error) *Error {
	var structured *Error
	switch {
	case errors.As(err, &structured):
		return structured
	case errors.Is(err, domains.ErrInvalidDomain):
		return ErrInvalidDomain.WithCause(err)
	case errors.Is(err, domains.ErrCAAMismatch):
		return ErrCAAMismatch.WithCause(err)
	case errors.Is(err, challenge.ErrDomainNotConfigured):
		return ErrNotFound.WithCause(err)
	case errors.Is(err, acmeaccount.ErrAccountUnavailable):
		return ErrAccountUnavailable.WithCause(err)
	default:
		return &Error{
			Status:  http.StatusInternalServerError,
			Code:    CodeACMEFailure,
			Message: err.Error(),
			cause:   err,
		}
	}
}
