// Package preflight provides readiness checks for the tools, services and
// paths a build depends on.
//
// The CLI "nlisten check" command runs RunAll and renders every result. The
// build command runs the same checks and refuses to start when a required
// one fails, so a dead VOICEVOX engine is reported before any audio is
// written.
package preflight
