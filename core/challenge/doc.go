// Package challenge stores in-flight ACME HTTP-01 challenge answers in the
// shared KV server.
//
// During an order the CA fetches
// http://<domain>/.well-known/acme-challenge/<token> and expects the key
// authorization string back. Because many stateless front-end processes sit
// behind the same domains, the answer is written to Redis by whichever
// process runs the order and read back by whichever process receives the
// CA's request.
//
// Records are keyed per (domain, token), carry their validity window inside
// the value, and expire server-side via TTL (two hours by default). A record
// either expires, or is deleted after the CA client's CleanUp, or is deleted
// on first expired lookup; a stale record never satisfies Get.
//
// Provider adapts the store to the ACME client's challenge-provider
// interface (Present/CleanUp), which is the only consumer of Set and Remove.
package challenge
