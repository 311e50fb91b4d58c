// Package catalog implements the product catalog ingestion and
// synchronization pipeline: CSV decoding and encoding, row normalization,
// batch reconciliation against the existing catalog, partial-field updates
// with an inventory audit trail, and audit history queries.
//
// The package has no transport dependencies. Persistence is reached through
// the [Store] interface so web handlers, CLI tools, and tests can inject
// different implementations (Postgres in production, in-memory in tests).
//
// # Import pipeline
//
// An import runs in four stages:
//
//  1. [DecodeCSV] tokenizes the uploaded bytes into rows keyed by header cell
//  2. [NormalizeRow] maps each raw row to a canonical [Product]
//  3. [Reconcile] partitions rows into an insert set and duplicates, using a
//     name snapshot taken once per batch plus names accepted earlier in the
//     same batch
//  4. the insert set is persisted with a single bulk-insert call
//
// # Audit trail
//
// [Service.Update] detects stock-quantity changes and appends exactly one
// immutable [AuditRecord] per change, only after the product update itself
// has been committed. [Service.History] returns the trail newest first,
// capped at [DefaultHistoryLimit] entries.
package catalog
