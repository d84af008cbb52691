// Package http serves the read-only status API of the attendance watcher.
//
// Handlers stay thin: they parse the request, call a service from
// internal/services and render JSON with go-chi/render. Errors are rendered
// as RFC 7807 problem bodies through internal/errors.ErrorHandler.
//
// Routes:
//
//	GET /healthz                     process is up
//	GET /readyz                      inbox, outbox and summary are usable
//	GET /livez                       liveness
//	GET /metrics                     Prometheus scrape, when enabled
//	GET /api/v1/version              build information
//	GET /api/v1/weeks                weeks present in the summary
//	GET /api/v1/weeks/{week}         student rows of one week
//	GET /api/v1/trend                per-week label totals
//	GET /api/v1/text-statistics      text statistics, ?week= filters
//
// Nothing here writes to disk. The watcher is the only writer of the
// summary workbook.
package http
