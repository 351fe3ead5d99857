// Package domains normalizes and validates domain names before certificate
// issuance.
//
// Normalization canonicalizes the name used as a storage key: lowercase, no
// trailing dot, punycode decoded to Unicode, NFC normalized. Validation
// requires a fully qualified hostname under a registered public suffix.
//
// The Validator additionally walks the CAA tree (RFC 8659) from the name up
// to its registrable parent and requires that the first non-empty CAA
// answer allows one of the configured issuer domains. Names without any CAA
// record pass, and DNS failures on a single level are treated as an empty
// answer so a flaky resolver does not block issuance.
package domains
