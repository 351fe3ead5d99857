package acmeaccount

import (
	"context"
	"crypto"
	"fmt"
	"log/slog"

	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"golang.org/x/sync/singleflight"

	"github.com/postalsys/certs/core/logger"
	"github.com/postalsys/certs/core/settings"
	"github.com/postalsys/certs/pkg/certutil"
)

// Transform mutates private-key material at rest. Encrypt and decrypt hooks
// are injected so the coordinator never decides the cipher; the default is
// identity.
type Transform func(ctx context.Context, data []byte) ([]byte, error)

// Identity is the default at-rest transform.
func Identity(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

// Record is the persisted account shape, stored at settings field
// "account:<environment>". The private key is held as ciphertext.
type Record struct {
	PrivateKey []byte                 `msgpack:"privateKey"`
	Account    *registration.Resource `msgpack:"account"`
}

// Account is a ready-to-use CA account: the decrypted key plus the CA-side
// registration resource.
type Account struct {
	Email         string
	PrivateKey    crypto.PrivateKey
	PrivateKeyPEM []byte
	Registration  *registration.Resource
}

// User satisfies the ACME client's account contract.
func (a *Account) GetEmail() string                        { return a.Email }
func (a *Account) GetRegistration() *registration.Resource { return a.Registration }
func (a *Account) GetPrivateKey() crypto.PrivateKey        { return a.PrivateKey }

// Manager idempotently provisions and caches one CA account per environment.
// Cold-start provisioning is the only place a thundering herd is explicitly
// collapsed: concurrent first callers within a process share a single
// provisioning flight, and a failed flight is not cached, so the next call
// retries. Across processes the last writer wins on the settings field,
// which is acceptable because either account is functional.
type Manager struct {
	cfg      Config
	settings *settings.Store
	encrypt  Transform
	decrypt  Transform
	logger   *slog.Logger

	group singleflight.Group

	// register is swappable for tests; the default registers a fresh
	// account with the configured ACME directory.
	register func(ctx context.Context, account *Account) (*registration.Resource, error)
}

// New creates an account manager. Nil transforms default to identity and a
// nil logger to slog.Default().
func New(cfg Config, st *settings.Store, encrypt, decrypt Transform, logger *slog.Logger) *Manager {
	if encrypt == nil {
		encrypt = Identity
	}
	if decrypt == nil {
		decrypt = Identity
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:      cfg,
		settings: st,
		encrypt:  encrypt,
		decrypt:  decrypt,
		logger:   logger,
	}
	m.register = m.registerWithDirectory
	return m
}

// DirectoryURL returns the configured ACME directory endpoint.
func (m *Manager) DirectoryURL() string {
	return m.cfg.DirectoryURL
}

func (m *Manager) settingsField() string {
	return "account:" + m.cfg.Environment
}

// GetAccount returns the CA account for the configured environment, reading
// it from settings or provisioning a new one on first use. Concurrent
// callers are coalesced into one flight.
func (m *Manager) GetAccount(ctx context.Context) (*Account, error) {
	v, err, _ := m.group.Do(m.settingsField(), func() (any, error) {
		return m.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

func (m *Manager) load(ctx context.Context) (*Account, error) {
	field := m.settingsField()

	rec, ok, err := settings.Get[Record](ctx, m.settings, field)
	if err != nil {
		return nil, err
	}

	if ok && len(rec.PrivateKey) > 0 {
		keyPEM, err := m.decrypt(ctx, rec.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("acmeaccount: decrypt account key: %w", err)
		}
		key, err := certutil.ParsePrivateKeyPEM(keyPEM)
		if err != nil {
			return nil, err
		}
		return &Account{
			Email:         m.cfg.Email,
			PrivateKey:    key,
			PrivateKeyPEM: keyPEM,
			Registration:  rec.Account,
		}, nil
	}

	m.logger.Info("provisioning new ACME account",
		logger.Environment(m.cfg.Environment),
		slog.String("directory", m.cfg.DirectoryURL))

	key, err := certutil.GenerateRSAKey(m.cfg.KeyBits)
	if err != nil {
		return nil, err
	}
	keyPEM, err := certutil.EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Email:         m.cfg.Email,
		PrivateKey:    key,
		PrivateKeyPEM: keyPEM,
	}

	reg, err := m.register(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountUnavailable, err)
	}
	account.Registration = reg

	encrypted, err := m.encrypt(ctx, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("acmeaccount: encrypt account key: %w", err)
	}

	// The write is awaited before returning so a reader racing right after
	// provisioning observes the stored account.
	if err := m.settings.Set(ctx, map[string]any{
		field: Record{PrivateKey: encrypted, Account: reg},
	}); err != nil {
		return nil, err
	}

	m.logger.Info("ACME account provisioned",
		logger.Environment(m.cfg.Environment),
		slog.String("uri", reg.URI))

	return account, nil
}

func (m *Manager) registerWithDirectory(ctx context.Context, account *Account) (*registration.Resource, error) {
	legoCfg := lego.NewConfig(account)
	legoCfg.CADirURL = m.cfg.DirectoryURL

	client, err := lego.NewClient(legoCfg)
	if err != nil {
		return nil, fmt.Errorf("create acme client: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("register account for %s: %w", account.Email, err)
	}
	return reg, nil
}
