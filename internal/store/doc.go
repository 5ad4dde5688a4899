// Package store persists the reconciliation state in SQLite: the raw
// denormalized source rows, the staging candidates that drive resumable
// draining, the canonical entity tables, titles, the junction tables, and
// the run records that checkpoint every processing run.
//
// The store assumes a single writer per database; callers serialize access
// with the flock next to the database file. Lookup-before-create is the
// correctness mechanism for entity and relationship uniqueness, backed by
// UNIQUE constraints in the schema.
//
// Schema changes are shipped as new files under migrations/ and recorded in
// the schema_migrations ledger; existing files are never edited.
package store
