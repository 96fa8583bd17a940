// Package core provides the business logic for spreadsheet import, search
// and export of company funding records.
//
// This package is independent of any transport layer. It can be used by the
// web handlers, the CLI, or tests without modification. Spreadsheet file
// formats and relational stores are reached through the [SheetCodec] and
// [Store] interfaces.
//
// # Architecture
//
// The package is organized around a handful of pieces that all consult the
// same [Registry]:
//
//   - Schema Registry: the ordered, typed column set of the funding table
//     ([Funding]). Column order drives the insert statement, the SELECT
//     projection and the exported sheet alike.
//   - Decoder: turns a [Grid] (one spreadsheet sheet) into a lazy sequence of
//     [Record] values via [Decode].
//   - Query Builder: turns a loosely typed [SearchCriteria] into one
//     parameterized [Query] whose predicates are OR'ed together.
//   - Exporter: projects records back into a [Grid] with [ExportGrid].
//   - Service: sequences decode→persist and build→query→export.
//
// # Ingestion
//
// Each decoded row becomes exactly one insert. Inserts run sequentially and
// are not wrapped in a transaction; the first failing row aborts the rest and
// is reported as a [PersistenceError] carrying the number of rows already
// inserted. Values are coerced to their column type only at persistence time
// (see [CoerceRecord]).
//
// # Error Handling
//
// Caller mistakes and store failures are reported with typed errors
// ([FormatError], [UnsupportedFileTypeError], [InvalidCriteriaError],
// [EmptyResultError], [PersistenceError], [ExportIOError]). [MapError] turns
// any of them, or a raw driver error, into a user-facing message with a
// support code:
//
//   - DB001-DB008: Database errors
//   - FILE001-FILE006: File and spreadsheet errors
//   - QRY001-QRY002: Search and export criteria
//   - EXP001: Export artifact errors
//   - UPL002-UPL005: Upload capacity and request lifetime
//   - RATE001: Client request budget exceeded
package core
