package manifest

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joshweier/nlisten/internal/sentences"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestBuildCapturesUTCAndPreservesOrder(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	clock := fixedClock(time.Date(2026, 3, 1, 9, 30, 0, 0, tokyo))
	records := []sentences.Record{{Index: 2, Audio: "0002.mp3"}, {Index: 1, Audio: "0001.mp3"}}

	m := Build(records, clock)
	if m.FormatVersion != "0.2" {
		t.Fatalf("unexpected version %q", m.FormatVersion)
	}
	if m.GeneratedAt.Location() != time.UTC || m.GeneratedAt.Hour() != 0 {
		t.Fatalf("timestamp not converted to UTC: %v", m.GeneratedAt)
	}
	if m.Records[0].Index != 2 || m.Records[1].Index != 1 {
		t.Fatalf("record order changed: %+v", m.Records)
	}
}

func TestEncodeShape(t *testing.T) {
	clock := fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	m := Build([]sentences.Record{{
		Sentence:       "{1:猫}<が>好き & more",
		Translation:    "I like cats",
		Contexts:       []string{},
		Audio:          "0001.mp3",
		Level:          "N5",
		Attribution:    "Tatoeba",
		AttributionURL: "https://tatoeba.org/1",
		Index:          1,
	}}, clock)

	data, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"{\n    \"version\": \"0.2\",\n    \"timestamp\": \"2026-03-01T00:00:00Z\",\n    \"sentences\": [\n        {\n",
		`"sentence": "{1:猫}<が>好き & more"`,
		`"contexts": []`,
		`"attrurl": "https://tatoeba.org/1"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Index") || strings.Contains(out, `"index"`) {
		t.Fatalf("index must not be serialized:\n%s", out)
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Fatalf("expected trailing newline")
	}
}

func TestBuildEmptyRecordsSerializesArray(t *testing.T) {
	data, err := Marshal(Build(nil, fixedClock(time.Unix(0, 0))))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sentences": []`) {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	m := Build([]sentences.Record{{Sentence: "a", Contexts: []string{"x"}, Audio: "0001.mp3"}}, fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 123000000, time.UTC)))
	if err := Write(path, m); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !got.GeneratedAt.Equal(m.GeneratedAt) || len(got.Records) != 1 || got.Records[0].Audio != "0001.mp3" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
