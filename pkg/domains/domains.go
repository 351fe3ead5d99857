package domains

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a domain name for use as a storage key: lowercase,
// no trailing dot, punycode decoded to its Unicode form, NFC normalized.
// "XN--BCHER-KVA.example" and "Bücher.example" normalize to the same key.
func Normalize(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain name", ErrInvalidDomain)
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid domain name", ErrInvalidDomain, domain)
	}

	unicode, err := idna.Lookup.ToUnicode(ascii)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid domain name", ErrInvalidDomain, domain)
	}

	return norm.NFC.String(strings.ToLower(unicode)), nil
}

// ASCII returns the punycode (lookup) form of a domain.
func ASCII(domain string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(strings.ToLower(strings.TrimSpace(domain)))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid domain name", ErrInvalidDomain, domain)
	}
	return ascii, nil
}

// Validate checks that domain is a syntactically valid, fully qualified
// hostname under a registered public suffix. Bare suffixes ("com"),
// unregistered TLDs, IP-like names, and malformed labels are rejected.
func Validate(domain string) error {
	ascii, err := ASCII(domain)
	if err != nil {
		return err
	}

	if len(ascii) > 253 {
		return fmt.Errorf("%w: %q exceeds the maximum hostname length", ErrInvalidDomain, domain)
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: %q is not a fully qualified domain name", ErrInvalidDomain, domain)
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("%w: %q contains an invalid label", ErrInvalidDomain, domain)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("%w: %q contains an invalid label", ErrInvalidDomain, domain)
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			default:
				return fmt.Errorf("%w: %q contains an invalid character", ErrInvalidDomain, domain)
			}
		}
	}

	suffix, icann := publicsuffix.PublicSuffix(ascii)
	if !icann {
		return fmt.Errorf("%w: %q does not end in a registered top-level domain", ErrInvalidDomain, domain)
	}
	if ascii == suffix {
		return fmt.Errorf("%w: %q is a bare public suffix", ErrInvalidDomain, domain)
	}

	return nil
}
