package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Profile is the encode parameter set applied to every file of a run.
type Profile struct {
	Codec string
	// Quality is the VBR level passed as -qscale:a; ignored when Bitrate is set.
	Quality    int
	Bitrate    string
	Channels   int
	SampleRate int
}

// Args returns the ffmpeg argument list converting input to output.
func (p Profile) Args(input, output string) []string {
	codec := p.Codec
	if codec == "" {
		codec = "libmp3lame"
	}
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", input, "-vn", "-codec:a", codec}
	if p.Bitrate != "" {
		args = append(args, "-b:a", p.Bitrate)
	} else {
		args = append(args, "-qscale:a", strconv.Itoa(p.Quality))
	}
	if p.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(p.Channels))
	}
	if p.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(p.SampleRate))
	}
	return append(args, output)
}

// ExitError reports a non-zero ffmpeg exit with its captured stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with status %d", e.Code)
	}
	return fmt.Sprintf("ffmpeg exited with status %d: %s", e.Code, e.Stderr)
}

// Transcoder runs the ffmpeg binary.
type Transcoder struct {
	binary  string
	profile Profile
}

// New returns a Transcoder for binary (default "ffmpeg") and profile.
func New(binary string, profile Profile) *Transcoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{binary: binary, profile: profile}
}

// Transcode encodes input into output, overwriting output if present.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) error {
	cmd := exec.CommandContext(ctx, t.binary, t.profile.Args(input, output)...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	trimmed := strings.TrimSpace(string(out))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: trimmed}
	}
	return fmt.Errorf("ffmpeg transcode: %w: %s", err, trimmed)
}
