package sentences

import (
	"fmt"
	"strings"
)

// Audio file extensions.
const (
	RawExt        = ".wav"
	CompressedExt = ".mp3"
)

// MinColumns is the number of fields a data row must carry.
const MinColumns = 6

// Record is one sentence entry and the audio produced for it. The JSON field
// names are the ones the flashcard frontend reads.
type Record struct {
	Sentence       string   `json:"sentence"`
	Translation    string   `json:"translation"`
	Contexts       []string `json:"contexts"`
	Audio          string   `json:"audio"`
	Level          string   `json:"level"`
	Attribution    string   `json:"attribution"`
	AttributionURL string   `json:"attrurl"`

	// Index is the 1-based position among accepted rows.
	Index int `json:"-"`
}

// Stem returns the zero-padded identifier for index, e.g. 7 -> "0007".
func Stem(index int) string {
	return fmt.Sprintf("%04d", index)
}

// RawName is the synthesized audio filename for the record.
func (r Record) RawName() string {
	return Stem(r.Index) + RawExt
}

// CompressedName is the transcoded audio filename for the record.
func (r Record) CompressedName() string {
	return Stem(r.Index) + CompressedExt
}

// IsCompressed reports whether Audio already names the compressed file.
func (r Record) IsCompressed() bool {
	return strings.HasSuffix(r.Audio, CompressedExt)
}

// SplitContexts splits a comma-joined tag field, trimming each tag. Empty tags
// are dropped, so an empty field yields an empty, non-nil slice. Order and
// duplicates are preserved.
func SplitContexts(field string) []string {
	parts := strings.Split(field, ",")
	contexts := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			contexts = append(contexts, tag)
		}
	}
	return contexts
}
