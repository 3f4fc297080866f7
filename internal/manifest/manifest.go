// Package manifest assembles and writes the JSON document listing every
// sentence and its audio file.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joshweier/nlisten/internal/fileutil"
	"github.com/joshweier/nlisten/internal/sentences"
)

// FormatVersion is bumped whenever the record shape changes.
const FormatVersion = "0.2"

// Manifest is the build output read by the flashcard frontend.
type Manifest struct {
	FormatVersion string             `json:"version"`
	GeneratedAt   time.Time          `json:"timestamp"`
	Records       []sentences.Record `json:"sentences"`
}

// Clock supplies the generation timestamp.
type Clock interface {
	Now() time.Time
}

// Build wraps records, in order and unmodified, with the format version and
// the current UTC time read from clock.
func Build(records []sentences.Record, clock Clock) Manifest {
	if records == nil {
		records = []sentences.Record{}
	}
	return Manifest{
		FormatVersion: FormatVersion,
		GeneratedAt:   clock.Now().UTC(),
		Records:       records,
	}
}

// Encode writes m as 4-space indented JSON with non-ASCII and HTML
// characters left unescaped.
func Encode(w io.Writer, m Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// Marshal returns the encoded manifest.
func Marshal(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces path with the encoded manifest atomically.
func Write(path string, m Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}
