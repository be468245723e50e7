// Package core runs validations of tabular data packages.
//
// This package holds the orchestration independent of any transport. The
// CLI, the HTTP server, the file watcher and the scheduler all go through
// [Service].
//
// # Validation Run
//
// [Service.Validate] takes a loaded [schema.Package] and:
//
//  1. Takes a slot from the [Limiter] (or fails with [ErrTooManyValidations])
//  2. Expands the descriptor so key checks are not reported twice
//  3. Phase one, per resource in parallel: read, raw text constraints,
//     parse, field constraints, primary and unique keys
//  4. Phase two, once every resource finished phase one: foreign keys
//     against the map of successfully parsed tables
//  5. Finalizes the report, notifies the [Observer] and saves the report
//
// A resource that fails to read or parse keeps its errors but is left out of
// the table map, so foreign keys pointing at it are skipped.
//
// # Error Handling
//
// Data problems are [report.Error] values inside the report. Go errors
// returned by this package are run failures and are mapped to user
// messages with [MapError]:
//
//   - CFG: descriptor problems
//   - SRC: unusable data sources
//   - VAL: malformed requests
//   - RPT: report lookup
//   - RATE: throttling
//   - SYS: cancellation and timeouts
//
// # Scheduling
//
// [Service.StartScheduler] re-validates a list of descriptors on a cron
// expression until its context is cancelled.
package core
