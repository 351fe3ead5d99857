package certs

import (
	"context"
	"crypto"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/postalsys/certs/core/acmeaccount"
	"github.com/postalsys/certs/core/challenge"
	"github.com/postalsys/certs/core/lock"
	"github.com/postalsys/certs/core/logger"
	"github.com/postalsys/certs/core/settings"
	"github.com/postalsys/certs/pkg/async"
	"github.com/postalsys/certs/pkg/certutil"
	"github.com/postalsys/certs/pkg/domains"
)

// Service is the certificate lifecycle coordinator. It owns the per-domain
// state machine, serializes renewals across competing processes, runs the
// ACME order flow, and hands out currently-valid certificates on demand.
type Service struct {
	cfg Config

	settings   *settings.Store
	challenges *challenge.Store
	locks      *lock.Service
	accounts   *acmeaccount.Manager
	validator  *domains.Validator

	encrypt acmeaccount.Transform
	decrypt acmeaccount.Transform
	logger  *slog.Logger
	issuer  issuer

	now func() time.Time
}

// Option customizes the Service.
type Option func(*Service)

// WithLogger sets the structured event sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEncryption sets the at-rest transforms for private-key material.
func WithEncryption(encrypt, decrypt acmeaccount.Transform) Option {
	return func(s *Service) {
		if encrypt != nil {
			s.encrypt = encrypt
		}
		if decrypt != nil {
			s.decrypt = decrypt
		}
	}
}

// WithValidator replaces the domain validator.
func WithValidator(v *domains.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithIssuer replaces the ACME issuance backend.
func WithIssuer(i issuer) Option {
	return func(s *Service) {
		if i != nil {
			s.issuer = i
		}
	}
}

// New wires the coordinator over a shared KV client. The account manager,
// settings, challenge, and lock stores are all derived from the same client
// and namespace so cooperating processes configured alike interoperate.
func New(client redis.UniversalClient, cfg Config, accountCfg acmeaccount.Config, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("certs: kv client is required")
	}
	if cfg.KeyBits < 2048 {
		cfg.KeyBits = 2048
	}
	if cfg.RenewWindow <= 0 {
		cfg.RenewWindow = 30*24*time.Hour + 10*time.Second
	}
	if cfg.LockLease <= 0 {
		cfg.LockLease = 10 * time.Minute
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 3 * time.Minute
	}
	if cfg.BlockRenewAfterError <= 0 {
		cfg.BlockRenewAfterError = time.Hour
	}

	prefix := cfg.Prefix()

	s := &Service{
		cfg:       cfg,
		encrypt:   acmeaccount.Identity,
		decrypt:   acmeaccount.Identity,
		logger:    slog.Default(),
		validator: domains.NewValidator(cfg.CAADomains),
		now:       time.Now,
	}

	s.settings = settings.New(client, prefix)
	s.challenges = challenge.New(client, s.settings, prefix, cfg.ChallengeTTL)
	s.locks = lock.New(client, prefix)

	for _, opt := range opts {
		opt(s)
	}

	s.accounts = acmeaccount.New(accountCfg, s.settings, s.encrypt, s.decrypt, s.logger)

	if s.issuer == nil {
		s.issuer = newACMEIssuer(accountCfg.DirectoryURL, s.challenges)
	}

	return s, nil
}

// Settings exposes the settings store, for collaborators that register
// domains by writing the per-domain data field.
func (s *Service) Settings() *settings.Store {
	return s.settings
}

// Challenges exposes the challenge store consumed by the ACME client.
func (s *Service) Challenges() *challenge.Store {
	return s.challenges
}

// GetAcmeAccount returns the CA account, provisioning it on first use.
func (s *Service) GetAcmeAccount(ctx context.Context) (*acmeaccount.Account, error) {
	account, err := s.accounts.GetAccount(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return account, nil
}

// GetCertificate returns a currently-valid certificate record for domain,
// transparently provisioning or renewing as needed. A domain that was never
// configured and cannot be obtained yields a nil record.
func (s *Service) GetCertificate(ctx context.Context, domain string) (*Record, error) {
	name, err := domains.Normalize(domain)
	if err != nil {
		return nil, classify(err)
	}

	record, err := s.loadRecord(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Usable(s.now()) {
		return record, nil
	}

	return s.AcquireCert(ctx, name)
}

// AcquireCert runs the renewal procedure for domain: it validates the
// domain, serializes against competing processes, orders a certificate from
// the CA when one is due, and persists the result. On most failures the
// prior record is returned as-is so serving can continue on the old
// certificate; a fresh install with no fallback propagates the error.
func (s *Service) AcquireCert(ctx context.Context, domain string) (*Record, error) {
	name, err := domains.Normalize(domain)
	if err != nil {
		return nil, classify(err)
	}

	log := s.logger.With(logger.Domain(name))

	existing, err := s.loadRecord(ctx, name)
	if err != nil {
		return nil, err
	}

	blocked, err := s.locks.HasFlag(ctx, "safe:"+name)
	if err != nil {
		return nil, err
	}
	if blocked {
		log.Info("renewal suppressed by fail-safe lock")
		return existing, nil
	}

	if err := s.validator.Validate(ctx, name); err != nil {
		structured := classify(err)
		log.Error("domain validation failed", logger.Code(structured.Code), logger.Error(err))
		s.recordFailure(ctx, name, existing != nil, structured)
		return existing, nil
	}

	lease, err := s.locks.Acquire(ctx, "op:"+name, s.cfg.LockLease, s.cfg.LockWait)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			log.Info("issuance lock not acquired, returning current record")
			return existing, nil
		}
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to release issuance lock", logger.Error(err))
		}
	}()

	// Another holder may have renewed while this caller waited.
	record, err := s.loadRecord(ctx, name)
	if err != nil {
		return nil, err
	}
	if record == nil {
		log.Info("domain is not configured, nothing to issue")
		return nil, nil
	}
	if !record.dueForRenewal(s.now(), s.cfg.RenewWindow) {
		return record, nil
	}

	fresh, err := s.issue(ctx, name, record, log)
	if err != nil {
		structured := classify(err)
		s.recordFailure(ctx, name, record != nil, structured)
		log.Error("certificate issuance failed", logger.Code(structured.Code), logger.Error(err))

		if structured.Code == CodeAccountUnavailable {
			return nil, structured
		}
		if record.Usable(s.now()) {
			return record, nil
		}
		return nil, structured
	}
	if fresh == nil {
		return record, nil
	}

	return fresh, nil
}

// issue performs one order while the op lock is held: ensure a domain key,
// build the CSR, obtain the certificate, persist and version the result.
func (s *Service) issue(ctx context.Context, name string, record *Record, log *slog.Logger) (*Record, error) {
	key, err := s.domainKey(ctx, name, record)
	if err != nil {
		return nil, err
	}

	csr, err := certutil.CreateCSR(key, name)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccount(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("requesting certificate from CA")
	res, err := s.issuer.Issue(ctx, account, csr)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Certificate) == 0 {
		log.Error("CA returned no certificate material")
		return nil, nil
	}

	leaf, intermediates := certutil.SplitChainPEM(res.Certificate)
	cert, err := certutil.ParseCertificatePEM(leaf)
	if err != nil {
		return nil, err
	}
	info := certutil.Describe(cert)

	now := s.now()
	version, err := s.settings.SetAndIncr(ctx, map[string]any{
		fieldData(name): recordData{
			Domain:       name,
			Status:       StatusValid,
			Cert:         leaf,
			CA:           intermediates,
			SerialNumber: info.SerialNumber,
			Fingerprint:  info.Fingerprint,
			AltNames:     info.AltNames,
			ValidFrom:    info.ValidFrom,
			ValidTo:      info.ValidTo,
		},
		fieldLastCheck(name): now,
		fieldLastError(name): nil,
	}, fieldCertVersion(name))
	if err != nil {
		return nil, err
	}

	log.Info("certificate issued",
		slog.String("serial", info.SerialNumber),
		logger.Expiry(info.ValidTo),
		logger.Version(version))

	return s.loadRecord(ctx, name)
}

// domainKey returns the domain's private key, generating and persisting a
// fresh one for first-time issuance. Key generation runs off the calling
// path.
func (s *Service) domainKey(ctx context.Context, name string, record *Record) (crypto.PrivateKey, error) {
	if record != nil && len(record.PrivateKey) > 0 {
		return certutil.ParsePrivateKeyPEM(record.PrivateKey)
	}

	future := async.Async(ctx, s.cfg.KeyBits, func(_ context.Context, bits int) (crypto.PrivateKey, error) {
		return certutil.GenerateRSAKey(bits)
	})
	key, err := future.Await()
	if err != nil {
		return nil, err
	}

	keyPEM, err := certutil.EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}
	encrypted, err := s.encrypt(ctx, keyPEM)
	if err != nil {
		return nil, err
	}

	if err := s.settings.Set(ctx, map[string]any{
		fieldData(name): recordData{
			Domain: name,
			Status: StatusPending,
		},
		fieldPrivateKey(name): encrypted,
		fieldLastError(name):  nil,
	}); err != nil {
		return nil, err
	}

	return key, nil
}

// recordFailure arms the fail-safe blocker and, when a record exists, writes
// the failure diagnostics.
func (s *Service) recordFailure(ctx context.Context, name string, haveRecord bool, failure *Error) {
	if err := s.locks.SetFlag(ctx, "safe:"+name, s.cfg.BlockRenewAfterError); err != nil {
		s.logger.Error("failed to arm fail-safe lock", logger.Domain(name), logger.Error(err))
	}

	if !haveRecord {
		return
	}
	if err := s.settings.Set(ctx, map[string]any{
		fieldLastError(name): LastError{
			Err:  failure.Message,
			Code: failure.Code,
			Time: s.now(),
		},
	}); err != nil {
		s.logger.Error("failed to record issuance error", logger.Domain(name), logger.Error(err))
	}
}

func fieldData(domain string) string        { return "domain:" + domain + ":data" }
func fieldLastCheck(domain string) string   { return "domain:" + domain + ":lastCheck" }
func fieldPrivateKey(domain string) string  { return "domain:" + domain + ":privateKey" }
func fieldLastError(domain string) string   { return "domain:" + domain + ":lastError" }
func fieldCertVersion(domain string) string { return "domain:" + domain + ":certVersion" }

// loadRecord assembles the merged per-domain record. A domain with no data
// field reports nil. Partial records are returned as-is; sibling fields that
// fail to decode are treated as absent.
func (s *Service) loadRecord(ctx context.Context, name string) (*Record, error) {
	fields, err := s.settings.GetRaw(ctx,
		fieldData(name),
		fieldLastCheck(name),
		fieldPrivateKey(name),
		fieldLastError(name),
		fieldCertVersion(name),
	)
	if err != nil {
		return nil, err
	}

	raw, ok := fields[fieldData(name)]
	if !ok {
		return nil, nil
	}

	var data recordData
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return nil, nil
	}

	record := &Record{
		Domain:       name,
		Status:       data.Status,
		Cert:         data.Cert,
		CA:           data.CA,
		SerialNumber: data.SerialNumber,
		Fingerprint:  data.Fingerprint,
		AltNames:     data.AltNames,
		ValidFrom:    data.ValidFrom,
		ValidTo:      data.ValidTo,
	}
	if record.Status == "" {
		record.Status = StatusPending
	}

	if raw, ok := fields[fieldLastCheck(name)]; ok {
		var lastCheck time.Time
		if err := msgpack.Unmarshal(raw, &lastCheck); err == nil {
			record.LastCheck = lastCheck
		}
	}

	if raw, ok := fields[fieldLastError(name)]; ok {
		var lastError *LastError
		if err := msgpack.Unmarshal(raw, &lastError); err == nil {
			record.LastError = lastError
		}
	}

	if raw, ok := fields[fieldPrivateKey(name)]; ok {
		var encrypted []byte
		if err := msgpack.Unmarshal(raw, &encrypted); err == nil && len(encrypted) > 0 {
			keyPEM, err := s.decrypt(ctx, encrypted)
			if err != nil {
				return nil, err
			}
			record.PrivateKey = keyPEM
		}
	}

	if raw, ok := fields[fieldCertVersion(name)]; ok {
		if version, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			record.CertVersion = version
		}
	}

	return record, nil
}
