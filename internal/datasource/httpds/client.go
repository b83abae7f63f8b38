// Package httpds reads datasets over HTTP(S). It wraps net/http with base
// headers, optional TLS verification skipping, and status-based retry for
// opening a download. Once a body is streaming, reads are never retried: a
// broken body surfaces to the consumer (the sampler reports it as a source
// read failure).
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// Config configures the HTTP client.
//
// Zero values are given defaults:
//   - Timeout:        0 (no overall deadline; large downloads stream for a while)
//   - MaxRetries:     0 (a single attempt)
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout bounds each whole request, body included. Leave zero for big
	// files and rely on ctx instead.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a retryable status
	// (429, 5xx) or a transport error while opening the download.
	MaxRetries int

	// InitialBackoff is the wait before the first retry; later retries
	// double it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// BaseHeaders are sent with every request; per-request headers win.
	BaseHeaders http.Header

	// Transport overrides the default transport (tests, proxies).
	Transport http.RoundTripper
}

// Client is an http.Client plus retry settings.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	baseHeaders    http.Header

	// onBackoff observes every wait before a retry; tests record it.
	onBackoff func(time.Duration)
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		baseHeaders:    cfg.BaseHeaders.Clone(),
		onBackoff:      func(time.Duration) {},
	}
}

// Get issues a GET, retrying retryable failures. The caller must close the
// response body. A non-retryable status is returned as a response, not an
// error; callers decide what counts as success.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			d := backoffDuration(c.initialBackoff, attempt-1, c.maxBackoff)
			c.onBackoff(d)
			if err := sleepWithContext(ctx, d); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.baseHeaders {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		for k, vs := range headers {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		_ = resp.Body.Close()
		lastErr = &StatusError{URL: url, Code: resp.StatusCode}
	}
	return nil, lastErr
}

// StatusError reports an HTTP status that does not carry a dataset.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoffDuration returns initial*2^retry clamped to max.
func backoffDuration(initial time.Duration, retry int, max time.Duration) time.Duration {
	if retry < 0 {
		retry = 0
	}
	d := initial
	for i := 0; i < retry && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
