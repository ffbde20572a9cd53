// Package registry holds the factory's configuration and the bidirectional
// index of pairs to the sub-systems that trade them.
//
// Every pair is indexed under both asset orderings, and every sub-system
// address is recorded once. The three indexes must agree; Consistent reports
// whether they do and the admin gateway refuses commands when they do not.
//
// The configuration is written once by Initialize and then changed field by
// field through the owner-only setters. Config returns a copy, so callers may
// keep it without holding any lock.
//
// Export and Restore convert the registry to and from a Snapshot for
// persistence.
package registry
