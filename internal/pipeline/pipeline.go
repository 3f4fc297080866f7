package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joshweier/nlisten/internal/journal"
	"github.com/joshweier/nlisten/internal/logging"
	"github.com/joshweier/nlisten/internal/manifest"
	"github.com/joshweier/nlisten/internal/markup"
	"github.com/joshweier/nlisten/internal/progress"
	"github.com/joshweier/nlisten/internal/resume"
	"github.com/joshweier/nlisten/internal/sentences"
	"github.com/joshweier/nlisten/internal/services"
)

const (
	stageResume     = "resume"
	stageSynthesize = "synthesize"
	stageTranscode  = "transcode"
)

// Synthesizer renders text to a raw audio file and returns the voice used.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) (int, error)
}

// Transcoder converts raw audio to the compressed format, reporting success.
type Transcoder interface {
	Transcode(ctx context.Context, raw, compressed string) bool
}

// Policy decides whether a record needs audio work.
type Policy interface {
	ShouldProcess(record sentences.Record, mode resume.Mode) resume.Decision
}

// Recorder receives the outcome of every record.
type Recorder interface {
	RecordItem(ctx context.Context, item journal.Item) error
}

// Options configure Run.
type Options struct {
	Records     []sentences.Record
	Mode        resume.Mode
	OutputDir   string
	Synthesizer Synthesizer
	Transcoder  Transcoder
	Policy      Policy
	// Reporter is optional; one without a sink is created when nil.
	Reporter *progress.Reporter
	// Clock stamps the manifest and times the run; defaults to the system clock.
	Clock    progress.Clock
	Logger   *slog.Logger
	Recorder Recorder
	// Malformed is the ingestion skip count, carried into the Summary.
	Malformed int
}

// Summary counts what a run did.
type Summary struct {
	Total             int
	Processed         int
	Transcoded        int
	TranscodeFailures int
	Skipped           int
	Malformed         int
	// MissingAudio counts skipped records whose compressed file is absent.
	MissingAudio int
	Elapsed      time.Duration
	OutputBytes  int64
}

// Result is a finished run. Manifest is only set when Run returns nil.
type Result struct {
	Manifest manifest.Manifest
	Records  []sentences.Record
	Summary  Summary
}

// Run processes opts.Records in order. The input slice is not modified.
func Run(ctx context.Context, opts Options) (Result, error) {
	if err := validate(opts); err != nil {
		return Result{}, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = progress.SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	mode := opts.Mode
	if mode == "" {
		mode = resume.ModeFull
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.NewReporter(len(opts.Records), progress.WithClock(clock))
	}
	defer reporter.Finish()

	start := clock.Now()
	records := append([]sentences.Record(nil), opts.Records...)
	summary := Summary{Total: len(records), Malformed: opts.Malformed}

	for i := range records {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = clock.Now().Sub(start)
			return Result{Records: records, Summary: summary}, err
		}
		itemCtx := services.WithItemID(ctx, records[i].Index)
		if err := processRecord(itemCtx, opts, mode, &records[i], &summary, clock, logger); err != nil {
			summary.Elapsed = clock.Now().Sub(start)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{Records: records, Summary: summary}, errors.Join(ctxErr, err)
			}
			return Result{Records: records, Summary: summary}, err
		}
		reporter.Update(i + 1)
	}

	summary.OutputBytes = audioBytes(opts.OutputDir, records)
	summary.Elapsed = clock.Now().Sub(start)
	return Result{
		Manifest: manifest.Build(records, clock),
		Records:  records,
		Summary:  summary,
	}, nil
}

func processRecord(ctx context.Context, opts Options, mode resume.Mode, rec *sentences.Record, summary *Summary, clock progress.Clock, base *slog.Logger) error {
	decision := opts.Policy.ShouldProcess(*rec, mode)
	if !decision.Process {
		rec.Audio = decision.Audio
		summary.Skipped++
		outcome := journal.OutcomeSkippedExisting
		if decision.Reason == resume.ReasonMetadataOnly {
			outcome = journal.OutcomeSkippedMetadata
		}
		logger := logging.WithContext(services.WithStage(ctx, stageResume), base)
		if !decision.Present {
			summary.MissingAudio++
			logging.WarnWithContext(logger, "compressed audio missing", "audio_missing",
				logging.String("audio", rec.Audio),
				logging.String(logging.FieldErrorHint, "run a full build or --update-only to produce it"),
				logging.String(logging.FieldImpact, "manifest references a file that does not exist"),
			)
		} else {
			logger.Debug("audio reused", logging.String("audio", rec.Audio), logging.String("reason", string(decision.Reason)))
		}
		record(ctx, opts.Recorder, base, journal.Item{Index: rec.Index, Audio: rec.Audio, Outcome: outcome})
		return nil
	}

	started := clock.Now()
	rawPath := filepath.Join(opts.OutputDir, rec.RawName())
	compressedPath := filepath.Join(opts.OutputDir, rec.CompressedName())

	synthCtx := services.WithStage(ctx, stageSynthesize)
	logger := logging.WithContext(synthCtx, base)
	text := markup.Normalize(rec.Sentence)
	if spans := markup.Spans(rec.Sentence); len(spans) > 0 {
		logger.Debug("markup stripped", logging.Int("spans", len(spans)), logging.String("text", text))
	}
	voice, err := opts.Synthesizer.Synthesize(synthCtx, text, rawPath)
	if err != nil {
		logging.ErrorWithContext(logger, "synthesis failed", "synthesis_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the VOICEVOX engine is running (nlisten check)"),
		)
		return err
	}
	rec.Audio = rec.RawName()
	summary.Processed++
	logger.Debug("audio synthesized", logging.Int("voice", voice), logging.String("path", rawPath))

	item := journal.Item{Index: rec.Index, VoiceID: voice}
	if opts.Transcoder.Transcode(services.WithStage(ctx, stageTranscode), rawPath, compressedPath) {
		rec.Audio = rec.CompressedName()
		summary.Transcoded++
		item.Outcome = journal.OutcomeEncoded
	} else {
		summary.TranscodeFailures++
		item.Outcome = journal.OutcomeSynthesized
		item.ErrorMessage = "transcode failed; raw audio kept"
	}
	item.Audio = rec.Audio
	item.Elapsed = clock.Now().Sub(started)
	record(ctx, opts.Recorder, base, item)
	return nil
}

func record(ctx context.Context, recorder Recorder, logger *slog.Logger, item journal.Item) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordItem(ctx, item); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "outcome not recorded", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete"),
		)
	}
}

func validate(opts Options) error {
	switch {
	case opts.Policy == nil:
		return errors.New("pipeline: policy required")
	case opts.Mode != resume.ModeMetadataOnly && (opts.Synthesizer == nil || opts.Transcoder == nil):
		return errors.New("pipeline: synthesizer and transcoder required")
	}
	return nil
}

func audioBytes(dir string, records []sentences.Record) int64 {
	var total int64
	for _, rec := range records {
		info, err := os.Stat(filepath.Join(dir, rec.Audio))
		if err == nil && info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}
