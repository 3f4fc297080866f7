package preflight

import (
	"context"

	"github.com/joshweier/nlisten/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never block a build.
	Optional bool
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckInputFile("Input CSV", cfg.Paths.Input),
		CheckOutputDir("Output directory", cfg.Paths.OutputDir),
		CheckFFmpeg(ctx, cfg.FFmpegBinary(), cfg.Encoder.Codec),
		CheckVoicevox(ctx, cfg.Voicevox.BaseURL, cfg.Voicevox.Speakers),
	}
	if cfg.Journal.Enabled {
		journalCheck := CheckOutputDir("Journal directory", cfg.Paths.StateDir)
		journalCheck.Optional = true
		results = append(results, journalCheck)
	}
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
