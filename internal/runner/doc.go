// Package runner wires one build invocation: it takes the output directory
// lock, opens the run log, journal, metrics and notifier, reads the
// sentence file, drives the pipeline and persists the manifest.
//
// Side channels (journal, metrics, notifications, run log) never fail a
// build; their errors are logged as warnings.
package runner
