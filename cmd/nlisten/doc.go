// Package main hosts the nlisten CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, builds the
// logger, and hands each subcommand to the internal packages: build drives
// the runner, check runs preflight, runs reads the journal. Keep this
// package lean; behavior belongs in internal/ and is surfaced here.
package main
