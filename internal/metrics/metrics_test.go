package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joshweier/nlisten/internal/journal"
)

func TestWriteTextfileIncludesRunCounters(t *testing.T) {
	m := New()
	ctx := context.Background()
	_ = m.RecordItem(ctx, journal.Item{Outcome: journal.OutcomeEncoded, Elapsed: 2 * time.Second})
	_ = m.RecordItem(ctx, journal.Item{Outcome: journal.OutcomeEncoded, Elapsed: time.Second})
	_ = m.RecordItem(ctx, journal.Item{Outcome: journal.OutcomeSkippedExisting})
	m.FinishRun(RunResult{
		Status:      journal.RunCompleted,
		Elapsed:     90 * time.Second,
		OutputBytes: 4096,
		Malformed:   2,
		FinishedAt:  time.Unix(1700000000, 0),
	})

	path := filepath.Join(t.TempDir(), "textfile", "nlisten.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`nlisten_sentences_total{outcome="encoded"} 2`,
		`nlisten_sentences_total{outcome="skipped_existing"} 1`,
		`nlisten_sentence_duration_seconds_count 2`,
		`nlisten_run_duration_seconds 90`,
		`nlisten_output_bytes 4096`,
		`nlisten_malformed_rows 2`,
		`nlisten_last_run_timestamp_seconds{status="completed"} 1.7e+09`,
		`nlisten_last_run_success 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, out)
		}
	}
}

func TestFailedRunClearsSuccess(t *testing.T) {
	m := New()
	m.FinishRun(RunResult{Status: journal.RunFailed, FinishedAt: time.Unix(10, 0)})
	path := filepath.Join(t.TempDir(), "nlisten.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "nlisten_last_run_success 0") {
		t.Fatalf("expected success gauge 0:\n%s", data)
	}
}

func TestEmptyPathIsNoop(t *testing.T) {
	if err := New().WriteTextfile(""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
