package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"loadgate/internal/config"
	"loadgate/internal/logging"
	"loadgate/internal/services"
)

const (
	acceptHeader = "application/vnd.github.v3+json"
	userAgent    = "loadgate/0.1.0"
	maxErrorBody = 2048
)

// StatusError reports a non-2xx response from the dispatch endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dispatch endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("dispatch endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client sends repository_dispatch events to one repository.
type Client struct {
	endpoint  string
	eventType string
	token     string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient builds a client from the [dispatch] config section. The token is
// required.
func NewClient(cfg config.Dispatch, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "configure", "token is empty; set LOADGATE_DISPATCH_TOKEN or GITHUB_TOKEN", nil)
	}
	owner, repo, err := cfg.RepositoryParts()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "configure", "", err)
	}
	eventType := strings.TrimSpace(cfg.EventType)
	if eventType == "" {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "configure", "event_type is empty", nil)
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	c := &Client{
		endpoint:  RepositoryURL(cfg.APIBaseURL, owner, repo) + "/dispatches",
		eventType: eventType,
		token:     token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			// A redirected POST is either replayed or downgraded to GET.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RepositoryURL returns the REST URL of owner/repo under apiBaseURL with both
// path segments escaped.
func RepositoryURL(apiBaseURL, owner, repo string) string {
	base := strings.TrimRight(strings.TrimSpace(apiBaseURL), "/")
	return fmt.Sprintf("%s/repos/%s/%s", base, url.PathEscape(owner), url.PathEscape(repo))
}

// Endpoint returns the dispatch URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts exactly one dispatch event carrying version unchanged. Redirects
// are not followed, so any non-2xx status, 3xx included, is returned as a
// *StatusError wrapped with services.ErrRemote.
func (c *Client) Send(ctx context.Context, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}
	body, err := NewPayload(c.eventType, version).Encode()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "dispatch", "send", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		return services.Wrap(services.ErrRemote, "dispatch", "send", c.eventType, statusErr)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("dispatch event sent",
		logging.String(logging.FieldEventType, "dispatch_sent"),
		logging.String("dispatch_event", c.eventType),
		logging.String("version", version),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}
