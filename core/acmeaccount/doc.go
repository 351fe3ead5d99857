// Package acmeaccount provisions and caches the CA account used for all
// certificate orders.
//
// One account exists per configured environment (development, staging,
// production). The account's RSA key is generated on first use, registered
// with the ACME directory, and persisted in settings with the private key
// encrypted by an injected transform. Subsequent calls read and decrypt the
// stored record.
//
// Concurrent first-time callers within a process are collapsed into a
// single provisioning flight; a failed flight is not cached, so the next
// caller retries. Two processes racing on first provisioning may both
// register an account; the later settings write wins and either account
// remains serviceable for orders.
package acmeaccount
