package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Endpoint paths relative to the base URL.
const (
	PathMessage = "/message"
	PathReset   = "/reset"
	PathExport  = "/export"
)

// ErrNoSession is returned by Export when the server has no session yet.
var ErrNoSession = errors.New("no active server session")

// Client talks to the scheduling assistant server. The server keeps the
// conversation context in a cookie session, so all calls share one jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	duration   metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client. Its Jar is kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.httpClient.Jar
		}
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTelemetry traces every call and records request durations.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(c *Client) {
		c.tracer = tracer
		if h, err := meter.Float64Histogram(
			"http.client.request.duration",
			metric.WithDescription("HTTP request duration in milliseconds"),
		); err == nil {
			c.duration = h
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
		logger:     slog.Default(),
	}
	WithTelemetry(tracenoop.NewTracerProvider().Tracer(""), metricnoop.NewMeterProvider().Meter(""))(c)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendMessage posts one user turn.
func (c *Client) SendMessage(ctx context.Context, message string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, "backend.message", http.MethodPost, PathMessage, MessageRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset starts a fresh server session and returns its greeting.
func (c *Client) Reset(ctx context.Context) (*ResetResponse, error) {
	var resp ResetResponse
	if err := c.do(ctx, "backend.reset", http.MethodPost, PathReset, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export fetches the server's view of the current session.
func (c *Client) Export(ctx context.Context) (*ExportResponse, error) {
	var resp ExportResponse
	if err := c.do(ctx, "backend.export", http.MethodGet, PathExport, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, resp.Error)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, spanName, method, path string, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, out)

	c.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("url.path", path)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("backend call failed", "path", path, "error", err)
		return err
	}
	c.logger.Debug("backend call succeeded", "path", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("API error: %s - %s", resp.Status, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
