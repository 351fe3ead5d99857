// Package settings stores typed binary values in a single Redis hash.
//
// The certificate coordinator keeps all durable per-installation state in
// one hash: the ACME account per environment, certificate records and
// private keys per domain, diagnostics, and monotonic certificate version
// counters. Field values are MessagePack-encoded, so arbitrary structured
// values (nulls, timestamps, nested maps, byte strings) round-trip without
// a schema.
//
// # Usage
//
//	store := settings.New(client, "certs:")
//
//	err := store.Set(ctx, map[string]any{
//		"domain:example.com:lastCheck": time.Now(),
//	})
//
//	ts, ok, err := settings.Get[time.Time](ctx, store, "domain:example.com:lastCheck")
//
// # Error policy
//
// A field that is missing, or whose bytes fail to decode into the requested
// type, reports absent. Transport errors propagate to the caller.
//
// # Atomicity
//
// Set writes all of its fields in one hash-multi-set; readers never observe
// a partial write from a single call. SetAndIncr additionally bumps an
// integer counter field in the same atomic pipeline, which the coordinator
// uses to version certificates.
package settings
