package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/joshweier/nlisten/internal/config"
	"github.com/joshweier/nlisten/internal/journal"
	"github.com/joshweier/nlisten/internal/logging"
	"github.com/joshweier/nlisten/internal/manifest"
	"github.com/joshweier/nlisten/internal/metrics"
	"github.com/joshweier/nlisten/internal/notifications"
	"github.com/joshweier/nlisten/internal/pipeline"
	"github.com/joshweier/nlisten/internal/preflight"
	"github.com/joshweier/nlisten/internal/progress"
	"github.com/joshweier/nlisten/internal/resume"
	"github.com/joshweier/nlisten/internal/sentences"
	"github.com/joshweier/nlisten/internal/services"
	"github.com/joshweier/nlisten/internal/services/ffmpeg"
	"github.com/joshweier/nlisten/internal/services/voicevox"
	"github.com/joshweier/nlisten/internal/synthesis"
	"github.com/joshweier/nlisten/internal/transcode"
)

const stageBuild = "build"

// Options configures a build. Zero values select production collaborators.
type Options struct {
	Mode resume.Mode
	// Out receives the human-facing lines; defaults to os.Stdout.
	Out io.Writer
	// ProgressFile drives the in-place bar when it is a terminal; otherwise
	// progress is logged.
	ProgressFile *os.File
	Logger       *slog.Logger
	Provider     synthesis.Provider
	Transcoder   transcode.Transcoder
	Picker       synthesis.Picker
	Notifier     notifications.Service
	Clock        progress.Clock
	// SkipPreflight disables the ffmpeg and VOICEVOX checks.
	SkipPreflight bool
}

// Report describes a finished build.
type Report struct {
	RunID        string
	Summary      pipeline.Summary
	ManifestPath string
	LogPath      string
}

// Build runs the pipeline once for cfg.
func Build(ctx context.Context, cfg *config.Config, opts Options) (Report, error) {
	if cfg == nil {
		return Report{}, errors.New("config is required")
	}
	opts = withDefaults(opts)
	started := opts.Clock.Now()

	prepare := cfg.EnsureDirectories
	if opts.Mode == resume.ModeMetadataOnly {
		prepare = cfg.EnsureStateDirectories
	}
	if err := prepare(); err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, stageBuild, "prepare", "create directories", err)
	}

	lockPath := LockPath(cfg)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, stageBuild, "lock", lockPath, err)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, stageBuild, "lock", lockPath, err)
	}
	if !locked {
		return Report{}, services.Wrap(services.ErrLocked, stageBuild, "lock", "another build is writing "+cfg.Paths.OutputDir, nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	report := Report{RunID: runID, ManifestPath: cfg.Paths.Manifest}

	logger, logPath := attachRunLog(opts.Logger, cfg, runID)
	report.LogPath = logPath
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, stageBuild))
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "nlisten-*.log", logPath)
	logger.Info("build started",
		logging.String("mode", string(opts.Mode)),
		logging.String("input", cfg.Paths.Input),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.String(logging.FieldEventType, "build_started"),
	)

	ingested, err := sentences.Ingest(cfg.Paths.Input)
	if err != nil {
		logging.ErrorWithContext(logger, "ingestion failed", "ingest_failed", logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.input and the CSV encoding"))
		return report, err
	}

	if !opts.SkipPreflight && opts.Mode != resume.ModeMetadataOnly {
		if err := checkServices(ctx, cfg, opts, logger); err != nil {
			logging.ErrorWithContext(logger, "preflight failed", "preflight_failed", logging.Error(err),
				logging.String(logging.FieldErrorHint, "run nlisten check for details"))
			return report, err
		}
	}

	fmt.Fprintf(opts.Out, "Valid sentences found: %d\n", len(ingested.Records))
	if ingested.Skipped > 0 {
		logger.Info("malformed rows skipped",
			logging.Int("skipped", ingested.Skipped),
			logging.Int("data_rows", ingested.DataRows),
			logging.Any("lines", ingested.SkippedLines),
		)
	}

	store := openJournal(ctx, cfg, logger)
	if store != nil {
		defer store.Close()
		if _, err := store.BeginRun(ctx, journal.Run{
			ID:           runID,
			Mode:         string(opts.Mode),
			InputPath:    cfg.Paths.Input,
			OutputDir:    cfg.Paths.OutputDir,
			ManifestPath: cfg.Paths.Manifest,
		}); err != nil {
			warnSideChannel(logger, "journal run not started", "journal_write_failed", err)
			store = nil
		}
	}
	runMetrics := metrics.New()

	result, runErr := runPipeline(ctx, cfg, opts, ingested, store, runMetrics, logger, runID)
	report.Summary = result.Summary
	if runErr == nil {
		if err := manifest.Write(cfg.Paths.Manifest, result.Manifest); err != nil {
			runErr = fmt.Errorf("write manifest: %w", err)
		}
	}

	finish(ctx, cfg, opts, store, runMetrics, logger, runID, result.Summary, runErr)
	if runErr != nil {
		return report, runErr
	}

	s := result.Summary
	logger.Info("build complete",
		logging.Int("total", s.Total),
		logging.Int("processed", s.Processed),
		logging.Int("transcoded", s.Transcoded),
		logging.Int("transcode_failures", s.TranscodeFailures),
		logging.Int("skipped", s.Skipped),
		logging.Int("malformed", s.Malformed),
		logging.String("output_size", humanize.Bytes(uint64(max(s.OutputBytes, 0)))),
		logging.String("manifest", cfg.Paths.Manifest),
		logging.String(logging.FieldEventType, "build_completed"),
	)
	fmt.Fprintf(opts.Out, "Done! (%.1f seconds)\n", opts.Clock.Now().Sub(started).Seconds())
	return report, nil
}

func withDefaults(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = resume.ModeFull
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = progress.SystemClock{}
	}
	return opts
}

func runPipeline(ctx context.Context, cfg *config.Config, opts Options, ingested sentences.Result, store *journal.Store, runMetrics *metrics.RunMetrics, logger *slog.Logger, runID string) (pipeline.Result, error) {
	var synth pipeline.Synthesizer
	var adapter pipeline.Transcoder
	if opts.Mode != resume.ModeMetadataOnly {
		provider := opts.Provider
		if provider == nil {
			provider = voicevox.NewClient(voicevox.Config{
				BaseURL:        cfg.Voicevox.BaseURL,
				TimeoutSeconds: cfg.Voicevox.TimeoutSeconds,
			})
		}
		s, err := synthesis.New(provider, cfg.Voicevox.Speakers, opts.Picker)
		if err != nil {
			return pipeline.Result{}, err
		}
		synth = s
		tc := opts.Transcoder
		if tc == nil {
			tc = ffmpeg.New(cfg.FFmpegBinary(), EncodeProfile(cfg))
		}
		adapter = transcode.NewAdapter(tc, logger)
	}

	recorders := pipeline.MultiRecorder{runMetrics}
	if store != nil {
		recorders = append(recorders, store.Recorder(runID))
	}

	reporter := progress.NewReporter(len(ingested.Records),
		progress.WithClock(opts.Clock),
		progress.WithBarWidth(cfg.Progress.BarWidth),
		progress.WithSink(progress.NewSink(opts.ProgressFile, logger, float64(cfg.Progress.LogBucketPercent))),
	)

	return pipeline.Run(ctx, pipeline.Options{
		Records:     ingested.Records,
		Mode:        opts.Mode,
		OutputDir:   cfg.Paths.OutputDir,
		Synthesizer: synth,
		Transcoder:  adapter,
		Policy:      resume.NewPolicy(cfg.Paths.OutputDir, nil),
		Reporter:    reporter,
		Clock:       opts.Clock,
		Logger:      logger,
		Recorder:    recorders,
		Malformed:   ingested.Skipped,
	})
}

// EncodeProfile maps the [encoder] section to an ffmpeg profile.
func EncodeProfile(cfg *config.Config) ffmpeg.Profile {
	return ffmpeg.Profile{
		Codec:      cfg.Encoder.Codec,
		Quality:    cfg.Encoder.Quality,
		Bitrate:    cfg.Encoder.Bitrate,
		Channels:   cfg.Encoder.Channels,
		SampleRate: cfg.Encoder.SampleRate,
	}
}

// LockPath is the build lock for cfg's output directory. It lives under the
// state directory, outside the audio directory.
func LockPath(cfg *config.Config) string {
	sum := sha256.Sum256([]byte(filepath.Clean(cfg.Paths.OutputDir)))
	return filepath.Join(cfg.Paths.StateDir, "locks", hex.EncodeToString(sum[:8])+".lock")
}

// checkServices fails only when VOICEVOX is unusable. ffmpeg problems are
// logged; transcoding then degrades per sentence.
func checkServices(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) error {
	if opts.Transcoder == nil {
		if r := preflight.CheckFFmpeg(ctx, cfg.FFmpegBinary(), cfg.Encoder.Codec); !r.Passed {
			logging.WarnWithContext(logger, "ffmpeg unavailable", "preflight_warning",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "install ffmpeg with "+cfg.Encoder.Codec+" or set encoder.ffmpeg_binary"),
				logging.String(logging.FieldImpact, "sentences keep their raw wav instead of an mp3"),
			)
		}
	}
	if opts.Provider != nil {
		return nil
	}
	r := preflight.CheckVoicevox(ctx, cfg.Voicevox.BaseURL, cfg.Voicevox.Speakers)
	if r.Passed {
		return nil
	}
	return services.Wrap(services.ErrExternalTool, "preflight", "check", r.Name+": "+r.Detail, nil)
}

func attachRunLog(base *slog.Logger, cfg *config.Config, runID string) (*slog.Logger, string) {
	logPath := logging.RunLogPath(cfg.Paths.LogDir, runID)
	handler, err := logging.NewHandler(logging.Options{
		Level:            "debug",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		warnSideChannel(base, "run log unavailable", "run_log_failed", err)
		return base, ""
	}
	return logging.TeeLogger(base, handler), logPath
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) *journal.Store {
	if !cfg.Journal.Enabled {
		return nil
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		warnSideChannel(logger, "journal unavailable", "journal_open_failed", err)
		return nil
	}
	if n, err := store.MarkAbandoned(ctx); err != nil {
		warnSideChannel(logger, "journal cleanup failed", "journal_write_failed", err)
	} else if n > 0 {
		logger.Info("abandoned runs closed", logging.Int64("runs", n))
	}
	return store
}

func finish(ctx context.Context, cfg *config.Config, opts Options, store *journal.Store, runMetrics *metrics.RunMetrics, logger *slog.Logger, runID string, summary pipeline.Summary, runErr error) {
	// Side channels still report an interrupted build.
	ctx = context.WithoutCancel(ctx)

	status := journal.RunCompleted
	errMsg := ""
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		status = journal.RunInterrupted
		errMsg = "interrupted"
	default:
		status = journal.RunFailed
		errMsg = runErr.Error()
	}

	if store != nil {
		totals := journal.Totals{
			Total:             summary.Total,
			Processed:         summary.Processed,
			Transcoded:        summary.Transcoded,
			TranscodeFailures: summary.TranscodeFailures,
			Skipped:           summary.Skipped,
			Malformed:         summary.Malformed,
			OutputBytes:       summary.OutputBytes,
		}
		if err := store.FinishRun(ctx, runID, status, totals, errMsg); err != nil {
			warnSideChannel(logger, "journal run not finished", "journal_write_failed", err)
		}
	}

	runMetrics.FinishRun(metrics.RunResult{
		Status:      status,
		Elapsed:     summary.Elapsed,
		OutputBytes: summary.OutputBytes,
		Malformed:   summary.Malformed,
		FinishedAt:  opts.Clock.Now(),
	})
	if err := runMetrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		warnSideChannel(logger, "metrics not exported", "metrics_write_failed", err)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	var notifyErr error
	switch status {
	case journal.RunCompleted:
		notifyErr = notifier.Publish(ctx, notifications.EventBuildCompleted, notifications.Payload{
			"total":             summary.Total,
			"processed":         summary.Processed,
			"skipped":           summary.Skipped,
			"transcodeFailures": summary.TranscodeFailures,
			"outputBytes":       summary.OutputBytes,
			"duration":          summary.Elapsed,
		})
	case journal.RunFailed:
		notifyErr = notifier.Publish(ctx, notifications.EventBuildFailed, notifications.Payload{
			"stage": failedStage(runErr),
			"error": runErr,
		})
	}
	if notifyErr != nil {
		warnSideChannel(logger, "notification not sent", "notification_failed", notifyErr)
	}
}

func failedStage(err error) string {
	switch {
	case errors.Is(err, services.ErrExternalTool):
		return "synthesize"
	default:
		return "build"
	}
}

func warnSideChannel(logger *slog.Logger, msg, eventType string, err error) {
	logging.WarnWithContext(logger, msg, eventType,
		logging.Error(err),
		logging.String(logging.FieldImpact, "build continues without this side channel"),
	)
}
