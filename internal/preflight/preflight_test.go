package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshweier/nlisten/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDir_WillBeCreated(t *testing.T) {
	result := CheckOutputDir("out", filepath.Join(t.TempDir(), "a", "b", "voxdata"))
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected pass for creatable dir, got: %+v", result)
	}
}

func TestCheckInputFile(t *testing.T) {
	dir := t.TempDir()
	if result := CheckInputFile("in", dir); result.Passed {
		t.Fatal("directory must not pass as input file")
	}
	path := filepath.Join(dir, "source.csv")
	if err := os.WriteFile(path, []byte(testsupport.CSV()), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckInputFile("in", path); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func voicevoxServer(t *testing.T, styles []int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			_, _ = w.Write([]byte(`"0.21.1"`))
		case "/speakers":
			type style struct {
				Name string `json:"name"`
				ID   int    `json:"id"`
			}
			list := make([]style, 0, len(styles))
			for _, id := range styles {
				list = append(list, style{Name: "normal", ID: id})
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{{"name": "speaker", "speaker_uuid": "x", "styles": list}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCheckVoicevox_OK(t *testing.T) {
	srv := voicevoxServer(t, []int{6, 9, 11})
	defer srv.Close()

	result := CheckVoicevox(context.Background(), srv.URL, []int{6, 11})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "0.21.1") {
		t.Fatalf("expected version in detail, got: %s", result.Detail)
	}
}

func TestCheckVoicevox_MissingStyles(t *testing.T) {
	srv := voicevoxServer(t, []int{6})
	defer srv.Close()

	result := CheckVoicevox(context.Background(), srv.URL, []int{6, 40})
	if result.Passed || !strings.Contains(result.Detail, "40") {
		t.Fatalf("expected missing style 40, got: %+v", result)
	}
}

func TestCheckVoicevox_Unreachable(t *testing.T) {
	srv := voicevoxServer(t, nil)
	url := srv.URL
	srv.Close()

	result := CheckVoicevox(context.Background(), url, []int{6})
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestCheckFFmpegWithStub(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"))

	result := CheckFFmpeg(context.Background(), "ffmpeg", "libmp3lame")
	if !result.Passed || !strings.Contains(result.Detail, "ffmpeg version") {
		t.Fatalf("expected pass, got: %+v", result)
	}
	if result := CheckFFmpeg(context.Background(), "ffmpeg", "libopus"); result.Passed {
		t.Fatal("expected failure for missing encoder")
	}
}

func TestFailuresSkipsOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b"},
		{Name: "c", Optional: true},
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
