package journal

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		inputPath    sql.NullString
		outputDir    sql.NullString
		manifestPath sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Mode,
		&inputPath,
		&outputDir,
		&manifestPath,
		&status,
		&run.Totals.Total,
		&run.Totals.Processed,
		&run.Totals.Transcoded,
		&run.Totals.TranscodeFailures,
		&run.Totals.Skipped,
		&run.Totals.Malformed,
		&run.Totals.OutputBytes,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.InputPath = inputPath.String
	run.OutputDir = outputDir.String
	run.ManifestPath = manifestPath.String
	run.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// voiceValue stores NULL for outcomes that never reached synthesis, since
// style 0 is a valid VOICEVOX id.
func (i Item) voiceValue() any {
	if !i.Outcome.Synthesized() {
		return nil
	}
	return i.VoiceID
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
