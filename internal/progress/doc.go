// Package progress tracks how many sentences a build has finished, estimates
// the time remaining, and renders a one-line progress bar.
//
// The Reporter owns its Clock so tests can drive time. Rendering goes through
// a Sink: on a terminal the line is redrawn in place with a carriage return;
// otherwise a sampled log line is emitted every few percent.
package progress
