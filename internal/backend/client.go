// Package backend talks to the analysis service that turns a question into
// SQL, runs it and proposes a visualization.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Config configures a Client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// BreakerThreshold is the number of consecutive failures that opens
	// the circuit.
	BreakerThreshold int
	BreakerTimeout   time.Duration
	// HTTPClient overrides the default client. Its Timeout is left alone.
	HTTPClient *http.Client
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://127.0.0.1:8000",
		Timeout:          2 * time.Minute,
		RetryAttempts:    3,
		RetryDelay:       500 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// Response is the body of a completed analysis.
type Response struct {
	Question            string     `json:"question"`
	SQLQuery            string     `json:"sql_query"`
	Results             string     `json:"results"`
	VisualizationConfig viz.Config `json:"visualization_config"`
	Steps               []string   `json:"steps"`
}

// Health is the body of the service's root endpoint.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Client calls the analysis backend.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
	breaker circuitbreaker.CircuitBreaker[*Response]
	retrier retry.Retry[*Response]
}

// New creates a Client. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		// Streams stay open for the whole analysis, so the overall timeout
		// is applied per call through the context instead.
		hc = &http.Client{}
	}

	threshold := uint32(cfg.BreakerThreshold) // #nosec G115 -- validated above
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    hc,
		logger:  logger,
		breaker: circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.BreakerTimeout,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
		retrier: retry.New[*Response](retry.Config{
			MaxAttempts:        cfg.RetryAttempts,
			InitialDelay:       cfg.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         2.0,
			NonRetryableErrors: []error{ErrRejected},
		}),
	}
}

// BaseURL returns the backend's base URL.
func (c *Client) BaseURL() string { return c.base }

// BreakerState reports the circuit breaker state ("closed", "open", ...).
func (c *Client) BreakerState() string { return c.breaker.State().String() }

type analyzeRequest struct {
	Question string `json:"question"`
}

// Analyze runs a question to completion and returns the final response.
func (c *Client) Analyze(ctx context.Context, question string) (*Response, error) {
	body, err := questionBody(question)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.breaker.Execute(ctx, func(ctx context.Context) (*Response, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (*Response, error) {
			var out Response
			if err := c.doJSON(ctx, http.MethodPost, "/analyze", body, &out); err != nil {
				c.logger.Debug("analyze attempt failed", "error", err)
				return nil, err
			}
			return &out, nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return resp, nil
}

// Health calls the root endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &h); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &h, nil
}

// Schema returns the backend's description of the database schema.
func (c *Client) Schema(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out struct {
		SchemaInfo string `json:"schema_info"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/schema", nil, &out); err != nil {
		return "", fmt.Errorf("schema: %w", err)
	}
	return out.SchemaInfo, nil
}

func questionBody(question string) ([]byte, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	body, err := json.Marshal(analyzeRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return body, nil
}

// doJSON sends a request and decodes a 2xx JSON body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// send issues the request and converts non-2xx responses into *StatusError.
// On success the caller owns the response body.
func (c *Client) send(ctx context.Context, method, path string, body []byte, accept string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, newStatusError(resp.StatusCode, raw)
}
