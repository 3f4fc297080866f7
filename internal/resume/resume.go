// Package resume decides, per sentence, whether audio work must run.
package resume

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joshweier/nlisten/internal/sentences"
)

// Mode selects how a build treats audio that may already exist.
type Mode string

const (
	// ModeFull synthesizes and transcodes every sentence.
	ModeFull Mode = "full"
	// ModeMetadataOnly rebuilds the manifest without touching audio.
	ModeMetadataOnly Mode = "metadata-only"
	// ModeUpdateOnly only produces audio whose MP3 is missing.
	ModeUpdateOnly Mode = "update-only"
)

// ErrConflictingModes is returned when both mode flags are set.
var ErrConflictingModes = errors.New("--metadata-only and --update-only are mutually exclusive")

// ParseMode maps the CLI flags to a mode. Neither flag means ModeFull.
func ParseMode(metadataOnly, updateOnly bool) (Mode, error) {
	switch {
	case metadataOnly && updateOnly:
		return "", ErrConflictingModes
	case metadataOnly:
		return ModeMetadataOnly, nil
	case updateOnly:
		return ModeUpdateOnly, nil
	default:
		return ModeFull, nil
	}
}

// Reason explains a Decision.
type Reason string

const (
	ReasonFull         Reason = "full_regenerate"
	ReasonMissing      Reason = "compressed_missing"
	ReasonExists       Reason = "compressed_exists"
	ReasonMetadataOnly Reason = "metadata_only"
)

// Decision is the verdict for one record.
type Decision struct {
	Process bool
	Reason  Reason
	// Audio is the filename to record when Process is false.
	Audio string
	// Present reports whether the compressed file was seen on disk. It is
	// only meaningful for ModeUpdateOnly and ModeMetadataOnly.
	Present bool
}

// StatFunc reports file metadata; os.Stat in production.
type StatFunc func(name string) (fs.FileInfo, error)

// Policy evaluates records against the output directory.
type Policy struct {
	outputDir string
	stat      StatFunc
}

// NewPolicy returns a Policy rooted at outputDir. A nil stat uses os.Stat.
func NewPolicy(outputDir string, stat StatFunc) *Policy {
	if stat == nil {
		stat = os.Stat
	}
	return &Policy{outputDir: outputDir, stat: stat}
}

// ShouldProcess decides whether record needs synthesis and transcoding. It
// never writes to disk.
func (p *Policy) ShouldProcess(record sentences.Record, mode Mode) Decision {
	compressed := record.CompressedName()
	switch mode {
	case ModeMetadataOnly:
		return Decision{Reason: ReasonMetadataOnly, Audio: compressed, Present: p.exists(compressed)}
	case ModeUpdateOnly:
		if p.exists(compressed) {
			return Decision{Reason: ReasonExists, Audio: compressed, Present: true}
		}
		return Decision{Process: true, Reason: ReasonMissing}
	default:
		return Decision{Process: true, Reason: ReasonFull}
	}
}

func (p *Policy) exists(name string) bool {
	info, err := p.stat(filepath.Join(p.outputDir, name))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
