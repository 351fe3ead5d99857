package acmeaccount

import "errors"

var (
	// ErrAccountUnavailable is returned when the CA account can neither be
	// read from settings nor provisioned. Callers should degrade rather
	// than crash.
	ErrAccountUnavailable = errors.New("acme account unavailable")
)
