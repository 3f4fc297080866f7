// Package logging assembles structured slog loggers and formatting helpers used
// across nlisten.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with record indexes, stages, and run IDs. It also provides log
// retention, a fan-out handler for mirroring a run into its own log file, a
// progress sampler for non-interactive output, and a no-op logger for tests.
package logging
