package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loadgate/internal/config"
)

const userAgent = "loadgate/0.1.0"

// Event identifies a pipeline outcome worth a push notification.
type Event string

const (
	EventDispatched Event = "dispatched"
	EventFailed     Event = "failed"
	EventTest       Event = "test"
)

// Payload carries event-specific fields. Unknown keys are ignored.
type Payload map[string]any

// Service is the notification surface used by the pipeline and CLI.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventDispatched:
		body := fmt.Sprintf("🚀 Load test deploy dispatched: %s", payload.text("version", "unknown"))
		if repo := payload.text("repository", ""); repo != "" {
			body = fmt.Sprintf("%s\nRepository: %s", body, repo)
		}
		if pr := payload.text("pull_request", ""); pr != "" {
			body = fmt.Sprintf("%s\nPull request: #%s", body, pr)
		}
		return message{
			title: "loadgate - Dispatched",
			body:  body,
			tags:  []string{"loadgate", "dispatch", "completed"},
		}, true
	case EventFailed:
		var builder strings.Builder
		builder.WriteString("❌ Load test gate failed")
		if stage := payload.text("stage", ""); stage != "" {
			builder.WriteString(" during ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		builder.WriteString(payload.text("error", "unknown"))
		return message{
			title:    "loadgate - Failed",
			body:     builder.String(),
			tags:     []string{"loadgate", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "loadgate - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"loadgate", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	var out string
	switch v := value.(type) {
	case string:
		out = v
	case error:
		out = v.Error()
	default:
		out = fmt.Sprint(v)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return fallback
	}
	return out
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
