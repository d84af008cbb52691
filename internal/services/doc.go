// Package services sits between the status HTTP handlers and the summary
// repository.
//
// HealthService reports liveness, readiness (inbox, outbox and summary
// workbook paths) and version information. SummaryService reloads the summary
// workbook on each call and exposes its weeks, per-week student rows, text
// statistics and the derived trend. Neither service mutates anything on
// disk; the watcher remains the only writer of the summary workbook.
//
// Errors follow internal/errors: an unknown week wraps ErrWeekNotFound, and a
// summary that cannot be read is a STORAGE AppError.
package services
