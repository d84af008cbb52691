// Package app wires the attendance pipeline together and owns its lifecycle.
//
// # Initialization Flow
//
// New performs, in order:
//
//	1. Resolve inbox, outbox, report and summary paths against the base dir
//	2. Build the slog logger (unless one is injected)
//	3. Initialize OpenTelemetry and the pipeline counters
//	4. Build classifier, analyzer and layout from the configuration
//	5. Create the summary repository, processor, discovery and watcher
//	6. Create the read-only health and summary services
//
// New never touches the inbox. Directories are created by Watch and Process.
//
// # Modes
//
// Watch polls the inbox until the context is cancelled; when the status
// server is enabled it runs in the same errgroup, so a failure of either
// stops both. Process handles one file. Detect writes transition reports
// for a directory without touching the summary. Trend reads the summary and
// Export writes it out as CSV.
//
// # Usage
//
//	a, err := app.New(cfg, app.Options{})
//	if err != nil {
//	    return err
//	}
//	defer a.Close(context.Background())
//	return a.Watch(ctx)
package app
