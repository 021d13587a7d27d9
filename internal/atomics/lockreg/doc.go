// Package lockreg maps referent addresses to the spin locks that guard
// locked-lane atomic references.
//
// A locked atomic value owns its lock inline. An atomic reference to an
// existing object has nowhere to put one, so the lock lives here, keyed by
// the referent's address. Every reference to the same address resolves to
// the same lock, which is what makes two references over one object mutually
// exclusive.
//
// Architecture:
//   - Fixed power-of-two array of atomic slot pointers (default 65536)
//   - Multiplicative hash of the address selects the home slot
//   - Linear probing over at most 8 slots, inserted with CAS
//   - sync.Map overflow once the probe window is full
//
// The registry is append-only. A reference resolves its lock once, at
// construction, and keeps the pointer; entries are never freed, so a lock
// can never disappear while a reference still uses it. If the referent is
// collected and its address reused, the new object simply shares the old
// lock, which is still correct mutual exclusion.
//
// There is no way to clear a registry. Tests that need an empty table build
// a new one.
//
// Thread Safety: All Registry methods are safe for concurrent use.
package lockreg
