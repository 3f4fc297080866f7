package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestProfileArgsVBR(t *testing.T) {
	got := monoProfile().Args("in.wav", "out.mp3")
	want := []string{
		"-hide_banner", "-loglevel", "error", "-y", "-i", "in.wav", "-vn",
		"-codec:a", "libmp3lame", "-qscale:a", "4", "-ac", "1", "-ar", "24000", "out.mp3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", got, want)
	}
}

func TestProfileArgsBitrateReplacesQuality(t *testing.T) {
	p := monoProfile()
	p.Bitrate = "64k"
	args := strings.Join(p.Args("a.wav", "a.mp3"), " ")
	if !strings.Contains(args, "-b:a 64k") {
		t.Fatalf("expected CBR flag, got %s", args)
	}
	if strings.Contains(args, "-qscale:a") {
		t.Fatalf("quality must be dropped when bitrate is set: %s", args)
	}
}

func TestTranscoderInvokesBinary(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	stub := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nfor last; do :; done\ntouch \"$last\"\nexit 0\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	out := filepath.Join(dir, "0001.mp3")
	if err := New(stub, monoProfile()).Transcode(context.Background(), filepath.Join(dir, "0001.wav"), out); err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output created: %v", err)
	}
	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	if !strings.Contains(string(recorded), "-codec:a libmp3lame -qscale:a 4") {
		t.Fatalf("unexpected recorded args %q", recorded)
	}
}

func TestTranscoderReportsExitStatus(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	err := New(stub, monoProfile()).Transcode(context.Background(), "in.wav", "out.mp3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 1 || !strings.Contains(exitErr.Stderr, "Invalid data found") {
		t.Fatalf("unexpected exit error %+v", exitErr)
	}
}

func TestTranscoderMissingBinary(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "nope"), monoProfile()).Transcode(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func monoProfile() Profile {
	return Profile{Codec: "libmp3lame", Quality: 4, Channels: 1, SampleRate: 24000}
}
