// Package webhook provides the HTTP client used to push notification payloads
// to external webhook endpoints.
package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stream-notify/internal/resilience/circuitbreaker"
)

// Config contains configuration for the webhook HTTP client.
type Config struct {
	// Username for HTTP basic auth. Empty disables authentication.
	Username string

	// Password for HTTP basic auth.
	Password string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RequestsPerSecond caps the sustained outbound request rate.
	// Zero disables rate limiting.
	RequestsPerSecond float64

	// Burst is the token bucket burst size when rate limiting is enabled.
	Burst int
}

// DefaultTimeout is applied when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Client posts JSON payloads to webhook endpoints. The HTTP client and its
// connection pool are shared across requests; per-host circuit breakers keep a
// misbehaving endpoint from consuming the notification pipeline.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breakers   sync.Map // host -> *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a webhook client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// Post sends body as a JSON payload to endpoint. Basic auth credentials are
// attached when a username is configured. The response status is logged but
// does not influence the result; only transport-level failures (connection,
// timeout, open circuit) are reported.
func (c *Client) Post(ctx context.Context, endpoint, body string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	host := endpointHost(endpoint)
	breaker := c.breakerFor(host)
	_, err := breaker.Execute(func() (any, error) {
		return nil, c.post(ctx, endpoint, body)
	})
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain the body so the connection can be reused; keep a snippet for logs.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("webhook delivered",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode))
	} else {
		c.logger.Warn("webhook endpoint returned non-success status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)))
	}
	return nil
}

// breakerFor returns the circuit breaker for a host, creating it on first use.
func (c *Client) breakerFor(host string) *circuitbreaker.CircuitBreaker {
	if cb, ok := c.breakers.Load(host); ok {
		return cb.(*circuitbreaker.CircuitBreaker)
	}
	cb := circuitbreaker.New(circuitbreaker.WebhookEndpointConfig(host))
	actual, _ := c.breakers.LoadOrStore(host, cb)
	return actual.(*circuitbreaker.CircuitBreaker)
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
