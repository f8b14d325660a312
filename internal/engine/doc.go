// Package engine coordinates user-defined sibling groups of reviewable
// items across records, on top of a host collection it does not own.
//
// The only durable state is a pair of label namespaces on records
// (sibling::<name> membership, sibling-suspended::<name> release-queue
// markers) plus one last-check timestamp in host configuration. Group
// membership is never cached: every read is a full reconstruction from
// the label set, so out-of-order replication converges on every device.
//
// The engine runs intermittently, invoked synchronously from discrete
// host events:
//
//   - item answered:     bury eligible siblings, push due review siblings
//   - sync finished:     catch up on reviews recorded elsewhere
//   - profile activated: catch up, advance the release queue, re-spread dues
//   - bulk user action:  mark / unmark / add-to-group membership changes
//
// All sequencing decisions derive from ascending item identifier order, a
// replication-safe total order, so two devices running the same scan over
// replicated label state reach the same conclusion independently.
//
// Failure policy: per-element failures inside a batch pass are logged and
// skipped, never aborting the remainder; public operations degrade to a
// no-op with a reason code instead of raising.
package engine
