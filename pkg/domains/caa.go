package domains

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// Validator performs syntactic and CAA policy checks before an issuance
// attempt. CAA verification walks the name's suffixes from most specific up
// to the registrable parent; the first suffix with any CAA answer decides
// the outcome, per RFC 8659 tree climbing.
type Validator struct {
	issuers []string

	// lookupCAA is swappable for tests; the default queries the resolvers
	// from the system resolv.conf.
	lookupCAA func(ctx context.Context, name string) ([]*dns.CAA, error)
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithCAALookup replaces the CAA resolver, e.g. to query a specific DNS
// server instead of the resolv.conf ones.
func WithCAALookup(fn func(ctx context.Context, name string) ([]*dns.CAA, error)) ValidatorOption {
	return func(v *Validator) {
		if fn != nil {
			v.lookupCAA = fn
		}
	}
}

// NewValidator creates a validator that requires one of the given issuer
// domains to be allowed by CAA policy. With no issuers configured, or when
// the system resolver configuration cannot be read, CAA checking is skipped
// and only the syntactic check applies.
func NewValidator(issuers []string, opts ...ValidatorOption) *Validator {
	normalized := make([]string, 0, len(issuers))
	for _, issuer := range issuers {
		issuer = strings.ToLower(strings.TrimSpace(issuer))
		if issuer != "" {
			normalized = append(normalized, issuer)
		}
	}

	v := &Validator{
		issuers:   normalized,
		lookupCAA: systemLookupCAA,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the syntactic check and, when configured, the CAA walk.
func (v *Validator) Validate(ctx context.Context, domain string) error {
	if err := Validate(domain); err != nil {
		return err
	}
	return v.VerifyCAA(ctx, domain)
}

// VerifyCAA walks the CAA tree for domain. On the first suffix with a
// non-empty CAA answer, at least one issue tag must name a configured
// issuer; otherwise ErrCAAMismatch is returned. A walk that exhausts all
// suffixes without finding a CAA record passes. DNS errors on a suffix are
// treated as an empty answer and the walk continues.
func (v *Validator) VerifyCAA(ctx context.Context, domain string) error {
	if len(v.issuers) == 0 || v.lookupCAA == nil {
		return nil
	}

	ascii, err := ASCII(domain)
	if err != nil {
		return err
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		registrable = ascii
	}

	name := ascii
	for {
		records, err := v.lookupCAA(ctx, name)
		if err == nil && len(records) > 0 {
			for _, rec := range records {
				if rec.Tag != "issue" {
					continue
				}
				value := strings.ToLower(strings.TrimSpace(rec.Value))
				// Parameters after ";" do not participate in matching.
				if idx := strings.IndexByte(value, ';'); idx >= 0 {
					value = strings.TrimSpace(value[:idx])
				}
				for _, issuer := range v.issuers {
					if value == issuer {
						return nil
					}
				}
			}
			return fmt.Errorf("%w: CAA policy of %q does not allow issuance for %q", ErrCAAMismatch, name, domain)
		}

		if name == registrable {
			return nil
		}
		idx := strings.IndexByte(name, '.')
		if idx < 0 {
			return nil
		}
		name = name[idx+1:]
	}
}

// systemLookupCAA queries the resolvers from resolv.conf for CAA records.
// An unreadable resolver configuration reports an empty answer, which makes
// the walk a no-op.
func systemLookupCAA(ctx context.Context, name string) ([]*dns.CAA, error) {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return nil, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeCAA)
	msg.RecursionDesired = true

	client := new(dns.Client)

	var lastErr error
	for _, server := range conf.Servers {
		resp, _, err := client.ExchangeContext(ctx, msg, net.JoinHostPort(server, conf.Port))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, nil
		}

		var records []*dns.CAA
		for _, rr := range resp.Answer {
			if caa, ok := rr.(*dns.CAA); ok {
				records = append(records, caa)
			}
		}
		return records, nil
	}

	return nil, lastErr
}
