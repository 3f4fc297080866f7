package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/joshweier/nlisten/internal/logging"
)

// Sink receives progress snapshots.
type Sink interface {
	Draw(Snapshot)
	Done()
}

// TerminalSink redraws a single line in place.
type TerminalSink struct {
	w       io.Writer
	lastLen int
	drawn   bool
}

// NewTerminalSink writes carriage-return updates to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Draw overwrites the previous line, padding if the new one is shorter.
func (s *TerminalSink) Draw(snap Snapshot) {
	line := snap.Line
	pad := ""
	if width := len([]rune(line)); width < s.lastLen {
		pad = strings.Repeat(" ", s.lastLen-width)
	} else {
		s.lastLen = width
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
	s.drawn = true
}

// Done ends the line so later output starts fresh.
func (s *TerminalSink) Done() {
	if s.drawn {
		fmt.Fprintln(s.w)
		s.drawn = false
	}
}

// LogSink emits an info log line each time progress crosses a sampler bucket.
type LogSink struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogSink logs through logger every bucketPercent percent.
func NewLogSink(logger *slog.Logger, bucketPercent float64) *LogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSink{logger: logger, sampler: logging.NewProgressSampler(bucketPercent)}
}

// Draw logs the snapshot when the sampler allows it.
func (s *LogSink) Draw(snap Snapshot) {
	if !s.sampler.ShouldLog(snap.Percent) {
		return
	}
	s.logger.Info("build progress",
		logging.Int("completed", snap.Completed),
		logging.Int("total", snap.Total),
		logging.String("percent", fmt.Sprintf("%.0f%%", snap.Percent)),
		logging.String("eta", FormatDuration(snap.Remaining)),
		logging.String(logging.FieldEventType, "build_progress"),
	)
}

// Done is a no-op for log output.
func (s *LogSink) Done() {}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewSink picks a TerminalSink when out is a terminal and a LogSink otherwise.
func NewSink(out *os.File, logger *slog.Logger, bucketPercent float64) Sink {
	if IsTerminal(out) {
		return NewTerminalSink(out)
	}
	return NewLogSink(logger, bucketPercent)
}
