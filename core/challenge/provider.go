package challenge

import (
	"context"
	"time"
)

// Provider adapts the store to the ACME client's HTTP-01 challenge-provider
// contract. The client calls Present before asking the CA to validate and
// CleanUp once the authorization settles, while any front-end process serves
// the stored answer on the well-known path.
type Provider struct {
	store   *Store
	timeout time.Duration
}

// NewProvider wraps a store for use with the ACME client.
func NewProvider(store *Store) *Provider {
	return &Provider{
		store:   store,
		timeout: 30 * time.Second,
	}
}

// Present stores the key authorization so it can be served to the CA.
func (p *Provider) Present(domain, token, keyAuth string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.store.Set(ctx, domain, token, keyAuth)
}

// CleanUp removes the challenge record after validation.
func (p *Provider) CleanUp(domain, token, _ string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.store.Remove(ctx, domain, token)
}
