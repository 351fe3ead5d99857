package domains

import "errors"

var (
	// ErrInvalidDomain is returned when a name fails the syntactic check.
	ErrInvalidDomain = errors.New("invalid domain name")

	// ErrCAAMismatch is returned when CAA policy forbids the configured issuer.
	ErrCAAMismatch = errors.New("CAA policy forbids issuance")
)
