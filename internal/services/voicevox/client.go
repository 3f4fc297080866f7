package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultBaseURL is where a locally started engine listens.
const DefaultBaseURL = "http://127.0.0.1:50021"

const maxErrorBody = 512

// Config captures the runtime settings required to talk to the engine.
type Config struct {
	BaseURL string
	// TimeoutSeconds bounds each request; zero leaves requests unbounded.
	TimeoutSeconds int
}

// Client wraps the VOICEVOX engine API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a VOICEVOX client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	return client
}

// Style is one voice variant of a speaker; its ID is what synthesis calls "speaker".
type Style struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Speaker is an entry of the engine's /speakers listing.
type Speaker struct {
	Name   string  `json:"name"`
	UUID   string  `json:"speaker_uuid"`
	Styles []Style `json:"styles"`
}

// HTTPStatusError reports a non-2xx engine response.
type HTTPStatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("voicevox %s: http %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// AudioQuery asks the engine to build a synthesis query for text spoken by styleID.
// The returned bytes are the engine's JSON query, passed unchanged to Synthesis.
func (c *Client) AudioQuery(ctx context.Context, text string, styleID int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("voicevox audio_query: text required")
	}
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", strconv.Itoa(styleID))
	body, err := c.do(ctx, http.MethodPost, "audio_query", params, nil, "")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("voicevox audio_query: response is not JSON")
	}
	return body, nil
}

// Synthesis renders a query produced by AudioQuery into WAV bytes.
func (c *Client) Synthesis(ctx context.Context, query []byte, styleID int) ([]byte, error) {
	if len(query) == 0 {
		return nil, errors.New("voicevox synthesis: query required")
	}
	params := url.Values{}
	params.Set("speaker", strconv.Itoa(styleID))
	audio, err := c.do(ctx, http.MethodPost, "synthesis", params, query, "application/json")
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("voicevox synthesis: empty audio response")
	}
	return audio, nil
}

// Synthesize runs AudioQuery then Synthesis for the same voice.
func (c *Client) Synthesize(ctx context.Context, text string, voiceID int) ([]byte, error) {
	query, err := c.AudioQuery(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	return c.Synthesis(ctx, query, voiceID)
}

// Version returns the engine version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "version", nil, nil, "")
	if err != nil {
		return "", err
	}
	var version string
	if err := json.Unmarshal(body, &version); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	return version, nil
}

// Speakers lists the speakers and styles the engine has loaded.
func (c *Client) Speakers(ctx context.Context) ([]Speaker, error) {
	body, err := c.do(ctx, http.MethodGet, "speakers", nil, nil, "")
	if err != nil {
		return nil, err
	}
	var speakers []Speaker
	if err := json.Unmarshal(body, &speakers); err != nil {
		return nil, fmt.Errorf("voicevox speakers: decode response: %w", err)
	}
	return speakers, nil
}

// HealthCheck verifies the engine answers its version endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Version(ctx)
	return err
}

// MissingStyles returns the ids in wanted that no loaded speaker style provides.
func MissingStyles(speakers []Speaker, wanted []int) []int {
	known := make(map[int]struct{})
	for _, sp := range speakers {
		for _, st := range sp.Styles {
			known[st.ID] = struct{}{}
		}
	}
	var missing []int
	for _, id := range wanted {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload []byte, contentType string) ([]byte, error) {
	target, err := url.JoinPath(c.cfg.BaseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("voicevox %s: build url: %w", endpoint, err)
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("voicevox %s: new request: %w", endpoint, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox %s: http error: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voicevox %s: read body: %w", endpoint, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet := truncateUTF8(strings.TrimSpace(string(body)), maxErrorBody)
		return nil, &HTTPStatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune; engine
// errors are often Japanese.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
