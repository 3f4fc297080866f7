package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, mode, input_path, output_dir, manifest_path, status, total, processed, transcoded, transcode_failures, skipped, malformed, output_bytes, error_message, started_at, finished_at"

// BeginRun inserts a run in the running state. StartedAt is set by the store.
func (s *Store) BeginRun(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		return nil, errors.New("run id is empty")
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, mode, input_path, output_dir, manifest_path, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Mode,
		nullableString(run.InputPath),
		nullableString(run.OutputDir),
		nullableString(run.ManifestPath),
		RunRunning,
		s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, run.ID)
}

// RecordItem stores the outcome for one sentence, replacing an earlier
// entry for the same index.
func (s *Store) RecordItem(ctx context.Context, item Item) error {
	if item.RunID == "" {
		return errors.New("item run id is empty")
	}
	_, err := s.exec(ctx,
		`INSERT OR REPLACE INTO run_items (run_id, item_index, audio, outcome, voice_id, error_message, elapsed_ms, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID,
		item.Index,
		item.Audio,
		item.Outcome,
		item.voiceValue(),
		nullableString(item.ErrorMessage),
		item.Elapsed.Milliseconds(),
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("record item %d: %w", item.Index, err)
	}
	return nil
}

// FinishRun stores the final status and totals.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, totals Totals, errMsg string) error {
	res, err := s.exec(ctx,
		`UPDATE runs
         SET status = ?, total = ?, processed = ?, transcoded = ?, transcode_failures = ?,
             skipped = ?, malformed = ?, output_bytes = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		totals.Total,
		totals.Processed,
		totals.Transcoded,
		totals.TranscodeFailures,
		totals.Skipped,
		totals.Malformed,
		totals.OutputBytes,
		nullableString(errMsg),
		s.timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun fetches a run by exact id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// FindRun resolves a full id or a unique id prefix.
func (s *Store) FindRun(ctx context.Context, prefix string) (*Run, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC, rowid DESC LIMIT 2`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
	}
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Items returns the recorded outcomes of a run in sentence order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, item_index, audio, outcome, voice_id, error_message, elapsed_ms, recorded_at
         FROM run_items WHERE run_id = ? ORDER BY item_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var (
			item       Item
			outcome    string
			voiceID    sql.NullInt64
			errMsg     sql.NullString
			elapsedMS  int64
			recordedAt string
		)
		if err := rows.Scan(&item.RunID, &item.Index, &item.Audio, &outcome, &voiceID, &errMsg, &elapsedMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Outcome = Outcome(outcome)
		item.VoiceID = int(voiceID.Int64)
		item.ErrorMessage = errMsg.String
		item.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if ts, err := parseTimeString(recordedAt); err == nil {
			item.RecordedAt = ts
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// OutcomeCounts tallies a run's items by outcome.
func (s *Store) OutcomeCounts(ctx context.Context, runID string) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT outcome, COUNT(1) FROM run_items WHERE run_id = ? GROUP BY outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Outcome]int)
	for rows.Next() {
		var outcome Outcome
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// MarkAbandoned fails runs left in the running state by a crashed process.
// It returns the number of runs updated.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = COALESCE(error_message, ?), finished_at = COALESCE(finished_at, ?)
         WHERE status = ?`,
		RunFailed, "abandoned: process exited before finishing", s.timestamp(), RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

// RunRecorder binds a store to one run id.
type RunRecorder struct {
	store *Store
	runID string
}

// Recorder returns a RunRecorder for runID.
func (s *Store) Recorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RecordItem stores item under the bound run id.
func (r *RunRecorder) RecordItem(ctx context.Context, item Item) error {
	item.RunID = r.runID
	return r.store.RecordItem(ctx, item)
}
