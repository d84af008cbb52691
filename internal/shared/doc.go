// Package shared holds helpers used by more than one package that belong to
// no single domain.
//
// testutil provides LogRecorder, an slog.Handler that keeps records in
// memory so tests can assert on what a component logged.
package shared
