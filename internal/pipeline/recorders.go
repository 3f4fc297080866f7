package pipeline

import (
	"context"
	"errors"

	"github.com/joshweier/nlisten/internal/journal"
)

// MultiRecorder fans an outcome out to several recorders. Nil entries are
// ignored; every recorder is called even when an earlier one fails.
type MultiRecorder []Recorder

// RecordItem implements Recorder.
func (m MultiRecorder) RecordItem(ctx context.Context, item journal.Item) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordItem(ctx, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
