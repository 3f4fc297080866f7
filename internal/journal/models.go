package journal

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// Outcome is the per-sentence result of a run.
type Outcome string

const (
	// OutcomeEncoded means the sentence was synthesized and transcoded.
	OutcomeEncoded Outcome = "encoded"
	// OutcomeSynthesized means transcoding failed and the raw wav was kept.
	OutcomeSynthesized Outcome = "synthesized"
	// OutcomeSkippedExisting means update-only mode found the mp3 on disk.
	OutcomeSkippedExisting Outcome = "skipped_existing"
	// OutcomeSkippedMetadata means metadata-only mode skipped audio work.
	OutcomeSkippedMetadata Outcome = "skipped_metadata"
)

// IsFailure reports whether the outcome needs operator attention.
func (o Outcome) IsFailure() bool {
	return o == OutcomeSynthesized
}

// Synthesized reports whether the sentence went through the TTS engine.
func (o Outcome) Synthesized() bool {
	return o == OutcomeEncoded || o == OutcomeSynthesized
}

// Run is one build invocation.
type Run struct {
	ID           string
	Mode         string
	InputPath    string
	OutputDir    string
	ManifestPath string
	Status       RunStatus
	Totals       Totals
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals are the counters stored when a run finishes.
type Totals struct {
	Total             int
	Processed         int
	Transcoded        int
	TranscodeFailures int
	Skipped           int
	Malformed         int
	OutputBytes       int64
}

// Item is the recorded outcome for one sentence.
type Item struct {
	RunID        string
	Index        int
	Audio        string
	Outcome      Outcome
	VoiceID      int
	ErrorMessage string
	// Elapsed covers synthesis and transcoding of this sentence.
	Elapsed      time.Duration
	RecordedAt   time.Time
}
