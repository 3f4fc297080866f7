// Package services defines shared utilities consumed by the pipeline and its
// external integrations (the VOICEVOX engine and ffmpeg).
//
// Key responsibilities:
//   - Context helpers that stamp sentence indexes, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and ExitCode which turns
//     a failed run into the process exit status.
package services
