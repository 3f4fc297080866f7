// Package transcode converts raw synthesized audio into its distribution
// format and removes the raw intermediate once the conversion succeeds.
package transcode

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joshweier/nlisten/internal/logging"
	"github.com/joshweier/nlisten/internal/services/ffmpeg"
)

// Transcoder converts the file at input into output.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// Adapter wraps a Transcoder with cleanup and failure reporting.
type Adapter struct {
	transcoder Transcoder
	logger     *slog.Logger
	remove     func(string) error
}

// NewAdapter returns an Adapter. A nil logger discards output.
func NewAdapter(transcoder Transcoder, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Adapter{transcoder: transcoder, logger: logger, remove: os.Remove}
}

// Transcode converts raw into compressed. On success the raw file is removed
// and true is returned. On failure the raw file is kept, a warning is logged
// and false is returned; the caller keeps referencing the raw file.
func (a *Adapter) Transcode(ctx context.Context, raw, compressed string) bool {
	logger := logging.WithContext(ctx, a.logger)
	if err := a.transcoder.Transcode(ctx, raw, compressed); err != nil {
		attrs := []logging.Attr{
			logging.String("raw", raw),
			logging.String("compressed", compressed),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ffmpeg binary and encoder settings, then rerun with --update-only"),
			logging.String(logging.FieldImpact, "manifest references the uncompressed wav for this sentence"),
		}
		var exitErr *ffmpeg.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, logging.Int("exit_code", exitErr.Code))
		}
		logging.WarnWithContext(logger, "transcode failed", "transcode_failed", attrs...)
		return false
	}
	if err := a.remove(raw); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "raw audio cleanup failed", "raw_cleanup_failed",
			logging.String("raw", raw),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the wav file manually"),
			logging.String(logging.FieldImpact, "stale wav left in the output directory"),
		)
	}
	return true
}
