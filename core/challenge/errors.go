package challenge

import "errors"

var (
	// ErrDomainNotConfigured is returned when a challenge is stored for a
	// domain that has no certificate record.
	ErrDomainNotConfigured = errors.New("challenge: domain is not configured")
)
