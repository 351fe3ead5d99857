// Package certs coordinates the TLS certificate lifecycle for a dynamic set
// of domains against an ACME certificate authority.
//
// All durable state lives in a shared Redis-compatible server, so many
// stateless front-end processes cooperate safely: certificate records and
// private keys in a settings hash, in-flight HTTP-01 challenge answers
// under TTL keys, and distributed locks serializing issuance per domain.
//
// # State machine
//
// Each domain moves through {absent → pending → valid → renewing →
// error-backoff}. GetCertificate returns the current record when it is
// still valid and otherwise delegates to AcquireCert, which:
//
//   - returns immediately while the per-domain fail-safe flag from a recent
//     failure exists,
//   - validates the domain syntactically and against CAA policy,
//   - takes the per-domain operation lock (bounded wait), re-checks whether
//     a competing process already renewed, and
//   - orders a certificate from the CA, persisting the parsed result and
//     bumping the domain's version counter exactly once per new certificate.
//
// Failures arm the fail-safe flag and are suppressed whenever a usable
// prior certificate exists, so serving degrades gracefully instead of
// hammering the CA. An unavailable CA account is the exception: it is
// returned as ErrAccountUnavailable even when a prior certificate exists.
//
// # Usage
//
//	svc, err := certs.New(redisClient, certs.Config{}, acmeaccount.Config{
//		Environment:  "production",
//		DirectoryURL: lego.LEDirectoryProduction,
//		Email:        "admin@example.com",
//	}, certs.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	record, err := svc.GetCertificate(ctx, "example.com")
//
// NewFromEnv builds the same service from environment configuration,
// connecting the KV client through the redis integration and loading the
// coordinator and account Config types through core/config:
//
//	svc, err := certs.NewFromEnv(ctx, certs.WithLogger(logger))
//
// The hosting HTTP server mounts svc.Handler() (or calls RouteHandler
// directly) on /.well-known/acme-challenge/ so the CA can fetch challenge
// answers from any process.
package certs
