// Package core runs uploaded files through ingestion, cleaning and export.
//
// It is independent of the HTTP layer: handlers build [Upload] values and a
// [Batch], call [Service.CleanBatch] or [Service.CleanFile], and render the
// results.
//
// # Batches
//
// Every request is its own batch. The batch carries an ID and the client
// metadata used in logs and run history; it lives in the request context
// and nothing about it is kept after the request returns.
//
// Files of a batch are cleaned in parallel. Each holds a slot from the
// service-wide [JobLimiter] while it decodes and cleans, so concurrent
// requests share the same cap. A file that fails records its error in its
// [FileResult] and never affects the others.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE005: size, unreadable, unsupported type, no file, too many files
//   - UPL002-UPL005: busy, cancelled, timeout
//   - RATE001, AUTH001-AUTH002: throttling and API keys
//
// # Run History
//
// When a database is configured, [PgRecorder] stores one row per cleaned
// sheet or failed file in clean_runs. Only counts and metadata are stored.
package core
