package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshweier/nlisten/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Input = filepath.Join(base, "source.csv")
	cfgVal.Paths.OutputDir = filepath.Join(base, "voxdata")
	cfgVal.Paths.Manifest = filepath.Join(base, "data.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVoicevoxURL points the config at a test VOICEVOX server.
func WithVoicevoxURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Voicevox.BaseURL = url
	}
}

// WithInput writes contents to the configured input CSV.
func WithInput(contents string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Paths.Input, []byte(contents), 0o644); err != nil {
			b.t.Fatalf("write input csv: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed with a script
// that copies its input to its output.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			script := "#!/bin/sh\nexit 0\n"
			if name == "ffmpeg" {
				script = FFmpegCopyScript
			}
			WriteScript(b.t, filepath.Join(binDir, name), script)
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// FFmpegCopyScript is a stub ffmpeg that copies the "-i" argument to the
// last argument and answers "-hide_banner -version" and "-hide_banner -encoders".
const FFmpegCopyScript = `#!/bin/sh
case "$2" in
  -version) echo "ffmpeg version 7.1-stub"; exit 0 ;;
  -encoders) echo " A....D libmp3lame           libmp3lame MP3"; exit 0 ;;
esac
in=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  prev="$arg"
  out="$arg"
done
cp "$in" "$out"
`

// WriteScript writes an executable shell script at path.
func WriteScript(t testing.TB, path, script string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
