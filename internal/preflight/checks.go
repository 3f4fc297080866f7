package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joshweier/nlisten/internal/deps"
	"github.com/joshweier/nlisten/internal/services/voicevox"
)

const voicevoxCheckTimeout = 5 * time.Second

// CheckVoicevox verifies that the engine answers and offers every speaker
// style in the pool.
func CheckVoicevox(ctx context.Context, baseURL string, speakers []int) Result {
	const name = "VOICEVOX"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, voicevoxCheckTimeout)
	defer cancel()

	client := voicevox.NewClient(voicevox.Config{BaseURL: base, TimeoutSeconds: int(voicevoxCheckTimeout / time.Second)})
	version, err := client.Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(base, err)}
	}
	available, err := client.Speakers(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("engine %s reachable but speakers unavailable (%v)", version, err)}
	}
	if missing := voicevox.MissingStyles(available, speakers); len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("engine %s lacks speaker styles %v", version, missing)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("engine %s at %s (%d speakers ok)", version, base, len(speakers))}
}

// CheckFFmpeg verifies the ffmpeg binary resolves and supports codec.
func CheckFFmpeg(ctx context.Context, binary, codec string) Result {
	const name = "FFmpeg"

	status := deps.CheckBinaries([]deps.Requirement{deps.FFmpegRequirement(binary)})[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	version, err := deps.FFmpegVersion(ctx, status.Command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", status.Command, err)}
	}
	if codec != "" {
		ok, err := deps.HasEncoder(ctx, status.Command, codec)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", status.Command, err)}
		}
		if !ok {
			return Result{Name: name, Detail: fmt.Sprintf("%s lacks encoder %s", status.Command, codec)}
		}
	}
	return Result{Name: name, Passed: true, Detail: version}
}

// CheckInputFile verifies that path is a readable regular file.
func CheckInputFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputDir is CheckDirectoryAccess for a directory the build may
// create: a missing path passes when its nearest existing ancestor is
// writable.
func CheckOutputDir(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	ancestor := CheckDirectoryAccess(name, parent)
	if !ancestor.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func summarizeHTTPError(base string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s timed out (engine unresponsive)", base)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("%s timed out (engine unreachable)", base)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("%s unreachable (is the engine running?)", base)
	}
	return err.Error()
}
