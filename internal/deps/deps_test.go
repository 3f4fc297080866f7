package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank detail: %q", results[2].Detail)
	}
}

func TestFFmpegRequirementDefaultsBinary(t *testing.T) {
	if got := FFmpegRequirement("").Command; got != "ffmpeg" {
		t.Fatalf("expected ffmpeg default, got %q", got)
	}
}

func TestFFmpegVersionAndEncoders(t *testing.T) {
	stub := writeStub(t, t.TempDir(), "ffmpeg", `case "$2" in
-version) echo "ffmpeg version 7.1 Copyright"; echo "built with gcc";;
-encoders) echo " A....D libmp3lame           libmp3lame MP3"; echo " V....D libx264 H.264";;
esac
exit 0
`)

	version, err := FFmpegVersion(context.Background(), stub)
	if err != nil {
		t.Fatalf("FFmpegVersion returned error: %v", err)
	}
	if version != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("unexpected version line %q", version)
	}

	ok, err := HasEncoder(context.Background(), stub, "libmp3lame")
	if err != nil || !ok {
		t.Fatalf("expected libmp3lame encoder, ok=%v err=%v", ok, err)
	}
	ok, err = HasEncoder(context.Background(), stub, "libx264")
	if err != nil || ok {
		t.Fatalf("video encoder must not count as audio, ok=%v err=%v", ok, err)
	}
}
