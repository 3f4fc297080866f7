// Package pipeline orchestrates one build: for every sentence in order it
// consults the resume policy, synthesizes and transcodes when needed, keeps
// progress, and finally folds the records into a manifest.
//
// Processing is strictly sequential. A synthesis failure or a cancelled
// context stops the build without producing a manifest; a transcoding
// failure only downgrades that sentence to its raw wav.
package pipeline
