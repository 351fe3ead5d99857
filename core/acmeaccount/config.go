package acmeaccount

// Config selects the ACME environment and account parameters.
type Config struct {
	// Environment labels the account slot in settings, so staging and
	// production accounts can coexist in one installation.
	Environment string `env:"ACME_ENVIRONMENT" envDefault:"development"`

	// DirectoryURL is the ACME directory endpoint.
	DirectoryURL string `env:"ACME_DIRECTORY_URL" envDefault:"https://acme-staging-v02.api.letsencrypt.org/directory"`

	// Email is the subscriber contact for the CA account.
	Email string `env:"ACME_EMAIL"`

	// KeyBits sizes the generated RSA account key.
	KeyBits int `env:"ACME_ACCOUNT_KEY_BITS" envDefault:"2048"`
}
