// Package catalog defines the domain vocabulary of the reconciliation
// engine: the canonical entity kinds, the relation kinds that map
// multi-valued source fields onto junction tables, and the pure string
// transforms (value normalization, multi-value splitting, name splitting,
// duration parsing) every other package agrees on.
//
// Nothing in this package touches the database; persistence lives in
// internal/store and orchestration in internal/reconcile.
package catalog
