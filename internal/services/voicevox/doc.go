// Package voicevox talks to a VOICEVOX engine over its HTTP API.
//
// Synthesis is a two-call exchange: audio_query turns text into a prosody
// query for a speaker style, and synthesis renders that query to WAV bytes.
// Client.Synthesize performs both and satisfies the synthesis.Provider
// interface. Version and Speakers back the preflight checks.
package voicevox
