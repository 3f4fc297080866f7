package testsupport

import (
	"context"
	"testing"

	"github.com/joshweier/nlisten/internal/config"
	"github.com/joshweier/nlisten/internal/journal"
)

// MustOpenJournal opens the config's journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun inserts a running run for tests using the provided store.
func BeginRun(t testing.TB, store *journal.Store, id, mode string) *journal.Run {
	t.Helper()

	run, err := store.BeginRun(context.Background(), journal.Run{ID: id, Mode: mode})
	if err != nil {
		t.Fatalf("store.BeginRun: %v", err)
	}
	return run
}
