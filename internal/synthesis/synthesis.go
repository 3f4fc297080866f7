// Package synthesis turns sentence text into a raw WAV file using a
// text-to-speech provider and a randomly chosen voice from a fixed pool.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshweier/nlisten/internal/services"
)

const stageSynthesize = "synthesize"

// Provider renders text in a voice and returns raw audio bytes.
type Provider interface {
	Synthesize(ctx context.Context, text string, voiceID int) ([]byte, error)
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Synthesizer writes provider output to disk.
type Synthesizer struct {
	provider Provider
	voices   []int
	picker   Picker
}

// New returns a Synthesizer over voices. A nil picker draws from an
// unseeded generator, so voice choice differs between runs.
func New(provider Provider, voices []int, picker Picker) (*Synthesizer, error) {
	if provider == nil {
		return nil, errors.New("synthesis: provider required")
	}
	if len(voices) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, stageSynthesize, "init", "voice pool is empty", nil)
	}
	if picker == nil {
		picker = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Synthesizer{provider: provider, voices: append([]int(nil), voices...), picker: picker}, nil
}

// PickVoice draws one voice uniformly from the pool.
func (s *Synthesizer) PickVoice() int {
	return s.voices[s.picker.IntN(len(s.voices))]
}

// Synthesize renders text with a freshly picked voice and writes the audio to
// dest, replacing any existing file. It returns the voice used. Every failure
// is marked services.ErrExternalTool except blank text, which is
// services.ErrValidation.
func (s *Synthesizer) Synthesize(ctx context.Context, text, dest string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, services.Wrap(services.ErrValidation, stageSynthesize, "prepare", "sentence text is empty", nil)
	}
	voice := s.PickVoice()
	audio, err := s.provider.Synthesize(ctx, text, voice)
	if err != nil {
		return voice, services.Wrap(services.ErrExternalTool, stageSynthesize, "request", fmt.Sprintf("voice %d", voice), err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return voice, services.Wrap(services.ErrExternalTool, stageSynthesize, "write", dest, err)
	}
	if err := os.WriteFile(dest, audio, 0o644); err != nil {
		return voice, services.Wrap(services.ErrExternalTool, stageSynthesize, "write", dest, err)
	}
	return voice, nil
}
