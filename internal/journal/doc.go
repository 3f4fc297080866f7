// Package journal records build runs and per-sentence outcomes in SQLite.
//
// The journal is an observational side channel: the build never reads it to
// decide what to do, and failures to write it are logged and ignored by
// callers. The `runs` CLI command reads it back for operators.
package journal
