package certs

import "time"

// Config tunes the certificate lifecycle coordinator.
type Config struct {
	// Namespace prefixes every key this installation writes. Empty means
	// keys live directly under "certs:".
	Namespace string `env:"CERTS_NAMESPACE"`

	// KeyBits sizes generated per-domain RSA keys.
	KeyBits int `env:"CERTS_KEY_BITS" envDefault:"2048"`

	// RenewWindow is how long before expiry a certificate becomes due for
	// renewal. The ten extra seconds keep a holder that just renewed from
	// being re-renewed by the next lock acquirer.
	RenewWindow time.Duration `env:"CERTS_RENEW_WINDOW" envDefault:"720h0m10s"`

	// LockLease bounds how long one issuance attempt may hold the
	// per-domain operation lock.
	LockLease time.Duration `env:"CERTS_LOCK_LEASE" envDefault:"10m"`

	// LockWait bounds how long a caller waits for the operation lock
	// before giving up and returning the current record.
	LockWait time.Duration `env:"CERTS_LOCK_WAIT" envDefault:"3m"`

	// BlockRenewAfterError is the fail-safe TTL set after an issuance
	// error. While the flag exists no renewal is attempted for the domain.
	BlockRenewAfterError time.Duration `env:"CERTS_BLOCK_RENEW_AFTER_ERROR" envDefault:"1h"`

	// ChallengeTTL bounds how long a pending HTTP-01 answer stays servable.
	ChallengeTTL time.Duration `env:"CERTS_CHALLENGE_TTL" envDefault:"2h"`

	// CAADomains lists issuer domains that must be allowed by CAA policy.
	// Empty disables CAA checking.
	CAADomains []string `env:"ACME_CAA_DOMAINS" envSeparator:","`
}

// Prefix returns the installation-wide key prefix.
func (c Config) Prefix() string {
	if c.Namespace == "" {
		return "certs:"
	}
	return c.Namespace + ":certs:"
}
