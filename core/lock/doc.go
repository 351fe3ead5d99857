// Package lock serializes certificate issuance across cooperating processes.
//
// Two kinds of keys are managed:
//
//   - Leases: acquired with a lease duration and a bounded wait budget.
//     At most one holder exists per key at a time; a fencing token
//     identifies the holder so releases never remove someone else's lease,
//     and a crashed holder's lease expires on its own.
//
//   - Flags: plain TTL keys used as advisory fail-safe blockers. After an
//     issuance error the coordinator sets a flag for the domain; while it
//     exists no process attempts renewal, which dampens retry storms
//     against the CA.
//
// Leases are implemented with the Redlock algorithm over the shared Redis
// client. Exceeding the wait budget yields the sentinel ErrNotAcquired, an
// expected outcome rather than a transport failure, so callers can fall back
// to the current certificate record.
package lock
