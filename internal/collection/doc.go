// Package collection is the host-side adapter: a SQLite-backed stand-in
// for the review application's collection and scheduler state.
//
// The engine consumes it through the engine.Host interface and treats it
// as the host's property: records with ordered label sets, items with
// phase/activity/due, a review history log, a scheduling-day index, and a
// small key-value configuration table.
//
// # Determinism
//
// Every list query orders by id ASC so that scans replay identically on
// any device. Review history ids are epoch-millisecond values and strictly
// increase, which makes "entries newer than timestamp" a stable cursor.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: labels and items die with their record
package collection
