// Package config loads, normalizes, and validates nlisten configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as VOICEVOX_URL and
// NTFY_TOPIC. The Config type centralizes every knob the build pipeline and
// CLI need: where sentences are read from, where audio and the manifest land,
// how the VOICEVOX engine is reached, and how ffmpeg encodes.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and validation errors that name the
// offending key.
package config
