package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SentenceHeader is the header row of the input CSV.
const SentenceHeader = "sentence,translation,contexts,level,attribution,attrurl"

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// CSV joins rows under the standard header.
func CSV(rows ...string) string {
	return SentenceHeader + "\n" + strings.Join(rows, "\n") + "\n"
}
