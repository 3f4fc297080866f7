package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultBarWidth is the number of cells in the rendered bar.
const DefaultBarWidth = 50

const (
	filledCell = "█"
	emptyCell  = "-"
)

// Reporter tracks completed against total since a start time.
type Reporter struct {
	mu        sync.Mutex
	total     int
	completed int
	start     time.Time
	clock     Clock
	width     int
	sink      Sink
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(r *Reporter) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithBarWidth sets the bar width in cells.
func WithBarWidth(width int) Option {
	return func(r *Reporter) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithSink routes every update to sink.
func WithSink(sink Sink) Option {
	return func(r *Reporter) {
		r.sink = sink
	}
}

// NewReporter starts tracking total items; the start time is read from the clock.
func NewReporter(total int, opts ...Option) *Reporter {
	r := &Reporter{total: max(total, 0), clock: SystemClock{}, width: DefaultBarWidth}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.clock.Now()
	return r
}

// Snapshot is a point-in-time view of the reporter.
type Snapshot struct {
	Completed int
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration
	Percent   float64
	Line      string
}

// Update sets the completed count, clamped to [0, total], and notifies the sink.
func (r *Reporter) Update(completed int) Snapshot {
	r.mu.Lock()
	r.completed = min(max(completed, 0), r.total)
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.emit(snap)
	return snap
}

// Snapshot returns the current state without notifying the sink.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Render returns the current progress line.
func (r *Reporter) Render() string {
	return r.Snapshot().Line
}

// Remaining estimates the time left. The average per-item duration is
// elapsed/(completed+1); the estimate is never negative and is exactly zero
// once every item is complete.
func (r *Reporter) Remaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingLocked(r.clock.Now().Sub(r.start))
}

// Elapsed returns the time since the reporter started.
func (r *Reporter) Elapsed() time.Duration {
	return r.clock.Now().Sub(r.start)
}

// Finish tells the sink no further updates follow.
func (r *Reporter) Finish() {
	if r.sink != nil {
		r.sink.Done()
	}
}

func (r *Reporter) emit(snap Snapshot) {
	if r.sink != nil {
		r.sink.Draw(snap)
	}
}

func (r *Reporter) snapshotLocked() Snapshot {
	elapsed := r.clock.Now().Sub(r.start)
	snap := Snapshot{
		Completed: r.completed,
		Total:     r.total,
		Elapsed:   elapsed,
		Remaining: r.remainingLocked(elapsed),
		Percent:   r.percentLocked(),
	}
	snap.Line = fmt.Sprintf("Progress: [%s] %3.0f%% | %d/%d | ETA %s",
		Bar(r.completed, r.total, r.width), snap.Percent, snap.Completed, snap.Total, FormatDuration(snap.Remaining))
	return snap
}

func (r *Reporter) remainingLocked(elapsed time.Duration) time.Duration {
	left := r.total - r.completed
	if left <= 0 || elapsed <= 0 {
		return 0
	}
	average := elapsed / time.Duration(r.completed+1)
	remaining := average * time.Duration(left)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r *Reporter) percentLocked() float64 {
	if r.total == 0 {
		return 100
	}
	return 100 * float64(r.completed) / float64(r.total)
}

// Bar renders width cells, filled in proportion to completed/total.
func Bar(completed, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := width
	if total > 0 {
		filled = width * min(max(completed, 0), total) / total
	}
	return strings.Repeat(filledCell, filled) + strings.Repeat(emptyCell, width-filled)
}

// FormatDuration truncates d to whole seconds and renders it with the two
// largest applicable units: "45s", "3m 12s", "2h 5m", "1d 3h".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
