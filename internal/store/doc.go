// Package store provides a SQLite-backed log of where-tree compilations.
//
// The log holds:
//   - Compilations: one row per distinct compilation request, keyed by a
//     content hash of dialect, model and canonical filter
//   - Named filters: human names bound to a compilation, with UUIDv7 ids
//
// # Patterns
//
// Content-addressed identity
//   - compilations.id = ir.CompilationID(dialect, model, filter)
//   - Saving the same request twice keeps the first row
//
// Logical ordering
//   - seq INTEGER is assigned on insert and orders every listing
//   - Queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Canonical arguments
//   - Bind arguments are stored as RFC 8785 canonical JSON
//   - Numbers read back as json.Number so large integers keep precision
package store
