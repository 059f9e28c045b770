// Package core provides the assignment and bulk-transfer engine for the
// phone-number roster.
//
// This package holds all domain logic independent of any UI or storage
// technology. It can be driven by the CLI, by tests, or by any other frontend
// without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Store: the three in-memory collections (numbers, persons, logs) with
//     whole-collection durable save/load through a [Blobs] backend.
//   - Sampler: unbiased sampling without replacement over unassigned numbers.
//   - Parser: turns pasted comma-separated text into candidate records,
//     rejecting malformed rows and duplicates.
//   - Service: the entry point for every operation (import, export/assign,
//     manual number and person management, log listing).
//
// # Bulk Import
//
// Import is a two-step flow:
//
//  1. Text is parsed with [Parser.Rows] (lazy) or [Parser.Parse] (collected).
//     Rows are checked against the current store and against earlier rows of
//     the same batch.
//  2. [Service.Import] allocates ids, stamps import time and source, appends
//     the records, persists the number collection and records one audit entry.
//
// # Export and Assignment
//
// [Service.Export] resolves a selection (all, id range, or a random sample of
// unassigned numbers) and optionally assigns every selected number to a
// person's display name in the same operation.
//
// # Consistency
//
// Mutating operations run one at a time behind a [Gate]. Each operation
// snapshots the collections it touches; if persisting fails the snapshot is
// restored exactly, so uniqueness of ids and phone numbers holds even under
// storage failure. Audit entries are written after the data they describe and
// are best-effort: a failed log write never undoes a persisted data change.
//
// # Error Handling
//
// Errors are classified with sentinels ([ErrNotFound], [ErrPersistence],
// [ErrBusy], ...) and mapped to user-facing messages with [MapError].
package core
