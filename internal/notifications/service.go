package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joshweier/nlisten/internal/config"
)

const userAgent = "nlisten/0.2"

// Event identifies a build milestone.
type Event string

const (
	EventBuildCompleted Event = "build_completed"
	EventBuildFailed    Event = "build_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Recognized keys depend on the event.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	var msg message
	switch event {
	case EventBuildCompleted:
		if !n.completion {
			return nil
		}
		msg = buildCompleted(payload)
	case EventBuildFailed:
		if !n.errors {
			return nil
		}
		msg = buildFailed(payload)
	case EventTest:
		msg = message{
			title:    "nlisten - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"nlisten", "test"},
			priority: "low",
		}
	default:
		return nil
	}
	return n.send(ctx, msg)
}

func buildCompleted(payload Payload) message {
	processed := intValue(payload, "processed")
	total := intValue(payload, "total")
	failures := intValue(payload, "transcodeFailures")
	duration := durationValue(payload, "duration").Round(time.Second)

	var b strings.Builder
	fmt.Fprintf(&b, "🔊 %d of %d sentences voiced in %s", processed, total, duration)
	if skipped := intValue(payload, "skipped"); skipped > 0 {
		fmt.Fprintf(&b, "\nSkipped: %d", skipped)
	}
	if size := intValue(payload, "outputBytes"); size > 0 {
		fmt.Fprintf(&b, "\nAudio: %s", humanize.Bytes(uint64(size)))
	}
	msg := message{
		title: "nlisten - Build Complete",
		tags:  []string{"nlisten", "build", "completed"},
	}
	if failures > 0 {
		msg.title = "nlisten - Build Complete (with warnings)"
		fmt.Fprintf(&b, "\nTranscode failures: %d", failures)
		msg.tags = append(msg.tags, "warning")
	}
	msg.body = b.String()
	return msg
}

func buildFailed(payload Payload) message {
	var b strings.Builder
	b.WriteString("❌ Build failed")
	if stage := strings.TrimSpace(stringValue(payload, "stage")); stage != "" {
		b.WriteString(" during ")
		b.WriteString(stage)
	}
	b.WriteString(": ")
	if errText := strings.TrimSpace(stringValue(payload, "error")); errText != "" {
		b.WriteString(errText)
	} else {
		b.WriteString("unknown")
	}
	return message{
		title:    "nlisten - Error",
		body:     b.String(),
		tags:     []string{"nlisten", "error", "alert"},
		priority: "high",
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func intValue(p Payload, key string) int64 {
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func durationValue(p Payload, key string) time.Duration {
	if d, ok := p[key].(time.Duration); ok && d > 0 {
		return d
	}
	return 0
}

func stringValue(p Payload, key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
