package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/postalsys/certs/core/settings"
)

// DefaultTTL bounds how long a pending challenge answer stays servable.
const DefaultTTL = 2 * time.Hour

// Record is the stored shape of one pending HTTP-01 challenge.
type Record struct {
	Acme Acme `msgpack:"acme"`
}

// Acme holds the token and its key authorization secret.
type Acme struct {
	Token  string `msgpack:"token"`
	Secret Secret `msgpack:"secret"`
}

// Secret is the key authorization string with its validity window.
type Secret struct {
	Value   string    `msgpack:"value"`
	Created time.Time `msgpack:"created"`
	Expires time.Time `msgpack:"expires"`
}

// Store keeps short-lived per-(domain, token) challenge records in the
// shared KV server, so the front-end process answering the CA's validation
// request does not have to be the process that started the order.
type Store struct {
	client   redis.UniversalClient
	settings *settings.Store
	prefix   string
	ttl      time.Duration

	now func() time.Time
}

// New creates a challenge store. Records live under prefix+"challenge:" and
// expire server-side after ttl (DefaultTTL when ttl is zero).
func New(client redis.UniversalClient, st *settings.Store, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client:   client,
		settings: st,
		prefix:   prefix,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) key(domain, token string) string {
	return fmt.Sprintf("%schallenge:%s:%s", s.prefix, domain, token)
}

// Put encodes and writes a challenge record with the store TTL attached in
// the same atomic write. Any failure is fatal to the order in progress.
func (s *Store) Put(ctx context.Context, domain, token string, rec Record) error {
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("challenge: encode %s/%s: %w", domain, token, err)
	}

	if err := s.client.Set(ctx, s.key(domain, token), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("challenge: write %s/%s: %w", domain, token, err)
	}
	return nil
}

// Fetch returns the decoded record, or nil when the key is missing or empty.
func (s *Store) Fetch(ctx context.Context, domain, token string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.key(domain, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("challenge: read %s/%s: %w", domain, token, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var rec Record
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("challenge: decode %s/%s: %w", domain, token, err)
	}
	return &rec, nil
}

// Drop deletes the record.
func (s *Store) Drop(ctx context.Context, domain, token string) error {
	if err := s.client.Del(ctx, s.key(domain, token)).Err(); err != nil {
		return fmt.Errorf("challenge: delete %s/%s: %w", domain, token, err)
	}
	return nil
}

// Set stores the key authorization for a pending challenge. The domain must
// already be configured (its certificate record field must exist in
// settings); otherwise ErrDomainNotConfigured is returned.
func (s *Store) Set(ctx context.Context, domain, token, keyAuthorization string) error {
	known, err := s.settings.Has(ctx, "domain:"+domain+":data")
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrDomainNotConfigured, domain)
	}

	now := s.now()
	return s.Put(ctx, domain, token, Record{
		Acme: Acme{
			Token: token,
			Secret: Secret{
				Value:   keyAuthorization,
				Created: now,
				Expires: now.Add(s.ttl),
			},
		},
	})
}

// Get returns the stored key authorization for (domain, token). A missing
// record reports absent. A record whose secret is missing or expired is
// deleted and reported absent, so stale answers never satisfy the CA.
func (s *Store) Get(ctx context.Context, domain, token string) (string, bool, error) {
	rec, err := s.Fetch(ctx, domain, token)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	secret := rec.Acme.Secret
	if secret.Value == "" || secret.Expires.Before(s.now()) {
		if err := s.Drop(ctx, domain, token); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	return secret.Value, true, nil
}

// Remove deletes the challenge record once the CA is done with it.
func (s *Store) Remove(ctx context.Context, domain, token string) error {
	return s.Drop(ctx, domain, token)
}
