package voicevox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClientSynthesizeRunsQueryThenSynthesis(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/audio_query":
			if got := r.URL.Query().Get("text"); got != "こんにちは" {
				t.Fatalf("unexpected text %q", got)
			}
			if got := r.URL.Query().Get("speaker"); got != "13" {
				t.Fatalf("unexpected speaker %q", got)
			}
			_, _ = w.Write([]byte(`{"accent_phrases":[],"speedScale":1.0}`))
		case "/synthesis":
			if got := r.URL.Query().Get("speaker"); got != "13" {
				t.Fatalf("synthesis used speaker %q", got)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Fatalf("unexpected content type %q", ct)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"accent_phrases":[],"speedScale":1.0}` {
				t.Fatalf("query not forwarded verbatim: %s", body)
			}
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("RIFFdata"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/"})
	audio, err := client.Synthesize(context.Background(), "こんにちは", 13)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "RIFFdata" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if !reflect.DeepEqual(calls, []string{"/audio_query", "/synthesis"}) {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestClientSurfacesHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"speaker not found"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), "text", 999)
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity || statusErr.Endpoint != "audio_query" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestClientTruncatesErrorBodyOnRuneBoundary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		// 3-byte runes never land exactly on the byte limit.
		_, _ = w.Write([]byte(strings.Repeat("音", 400)))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Version(context.Background())
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if len(statusErr.Body) > maxErrorBody || !utf8.ValidString(statusErr.Body) {
		t.Fatalf("body not trimmed to a valid prefix: %d bytes, valid=%v", len(statusErr.Body), utf8.ValidString(statusErr.Body))
	}
	if want := strings.Repeat("音", maxErrorBody/3); statusErr.Body != want {
		t.Fatalf("expected %d runes, got %d", maxErrorBody/3, utf8.RuneCountInString(statusErr.Body))
	}
}

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"あいう", 4, "あ"},
		{"あいう", 6, "あい"},
		{"あ", 2, ""},
	}
	for _, tc := range cases {
		if got := truncateUTF8(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncateUTF8(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestClientRejectsEmptyText(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.AudioQuery(context.Background(), "  ", 1); err == nil {
		t.Fatal("expected error for blank text")
	}
}

func TestClientHealthCheckAndSpeakers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			_ = json.NewEncoder(w).Encode("0.14.10")
		case "/speakers":
			_ = json.NewEncoder(w).Encode([]Speaker{
				{Name: "四国めたん", Styles: []Style{{Name: "ノーマル", ID: 2}, {Name: "あまあま", ID: 0}}},
				{Name: "ずんだもん", Styles: []Style{{Name: "ノーマル", ID: 3}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	version, err := client.Version(context.Background())
	if err != nil || version != "0.14.10" {
		t.Fatalf("unexpected version %q err=%v", version, err)
	}
	speakers, err := client.Speakers(context.Background())
	if err != nil {
		t.Fatalf("Speakers returned error: %v", err)
	}
	if missing := MissingStyles(speakers, []int{0, 3, 9}); !reflect.DeepEqual(missing, []int{9}) {
		t.Fatalf("unexpected missing styles %v", missing)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if err := NewClient(Config{BaseURL: server.URL}).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
