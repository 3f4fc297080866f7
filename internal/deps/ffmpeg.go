package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpegRequirement describes the encoder binary used for MP3 output.
func FFmpegRequirement(binary string) Requirement {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Required for MP3 transcoding",
	}
}

// FFmpegVersion runs `ffmpeg -version` and returns its first line.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-version").Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", fmt.Errorf("ffmpeg version: empty output")
}

// HasEncoder reports whether `ffmpeg -encoders` lists the named audio encoder.
func HasEncoder(ctx context.Context, binary, encoder string) (bool, error) {
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output() //nolint:gosec
	if err != nil {
		return false, fmt.Errorf("ffmpeg encoders: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "A") && fields[1] == encoder {
			return true, nil
		}
	}
	return false, scanner.Err()
}
