// Package leadimport provides the business logic for importing LinkedIn lead
// exports into the lead store.
//
// The package is independent of any transport layer. It can be driven by the
// web handlers, by tests, or by any other caller that has the file text in
// memory.
//
// # Pipeline
//
// An import run is a single sequential pass over the file:
//
//  1. [SplitLines] and [TokenizeRow] turn raw text into header and data rows.
//  2. [DefaultMappingFor] proposes a [Mapping] from source columns to lead
//     [Field] values; the operator may reassign columns with [Mapping.Assign].
//  3. [Transformer.TransformRow] builds a [Lead] from one data row, adding the
//     identity marker, campaign marker, score, default preference and source.
//  4. [Executor.Run] looks up prior imports by the identity marker in the notes
//     field, then updates the first match or inserts a new lead.
//
// Rows are never processed concurrently and each row is its own
// read-then-write round trip against the [LeadStore].
//
// # Progress and results
//
// The executor reports a [Progress] value after every data row, blank or not,
// and appends one [RowResult] per non-blank row. The final [Report] carries
// the ordered results plus success, warning and error counts.
//
// # Errors
//
// Only whole-run preconditions ([ErrNoDataRows], [ErrMissingIdentity],
// [ErrEmptyMapping]) stop a run from starting. Transformation and write
// failures are recorded against their row and the run moves on.
//
// Technical errors are mapped to user-friendly messages with [MapError]:
//
//   - DB001-DB005: Store errors (duplicates, connections, timeouts)
//   - IMP001-IMP004: Import preconditions (identity column, data rows, mapping)
//   - FILE001-FILE003: File errors (size, encoding, missing file)
//   - RUN001-RUN003: Run errors (busy, not found, timeout)
package leadimport
