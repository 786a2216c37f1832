// Package httpclient is the outbound REST transport used by generated
// REST client steps and by the schema binding resolver's remote
// descriptor fetch. It layers bounded retry with exponential backoff,
// transparent brotli/gzip response decoding, and request counters over
// a pooled net/http transport.
package httpclient

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
)

// Client is a pooled HTTP client safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client

	requests atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

// Stats is a point-in-time snapshot of a client's request counters.
type Stats struct {
	Requests int64
	Retries  int64
	Failures int64
}

// New creates a Client from cfg; zero-valued fields fall back to
// DefaultConfig.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		// Decoding is negotiated and handled here so brotli can join
		// gzip; net/http's built-in handling only covers gzip.
		DisableCompression: true,
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

// NewWithDefaults creates a Client with DefaultConfig.
func NewWithDefaults() *Client {
	return New(Config{})
}

// Stats returns the current request counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Retries:  c.retries.Load(),
		Failures: c.failures.Load(),
	}
}

// Get issues a GET against url with retry and transparent decoding.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: building request: %w", err)
	}
	return c.DoWithContext(ctx, req)
}

// DoWithContext executes req, retrying transient failures (network
// errors and 429/502/503/504 responses) up to MaxRetries times when
// the request can be safely re-sent. When every attempt ends in a
// transient status, an error is returned; a request that cannot be
// re-sent gets its single response back as-is. The response body is
// transparently decoded when the server answered with brotli or gzip
// encoding.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if !c.cfg.DisableCompression && req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "br, gzip")
	}

	retries := c.cfg.MaxRetries
	if !retryable(req) {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			c.retries.Add(1)
			select {
			case <-ctx.Done():
				c.failures.Add(1)
				return nil, ctx.Err()
			case <-time.After(backoff(c.cfg, attempt)):
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					c.failures.Add(1)
					return nil, fmt.Errorf("httpclient: rewinding request body: %w", err)
				}
				req.Body = body
			}
		}

		c.requests.Add(1)
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if transientStatus(resp.StatusCode) && retries > 0 {
			lastErr = fmt.Errorf("httpclient: transient status %d from %s", resp.StatusCode, req.URL)
			resp.Body.Close()
			continue
		}

		if err := decodeBody(resp); err != nil {
			resp.Body.Close()
			c.failures.Add(1)
			return nil, err
		}
		return resp, nil
	}

	c.failures.Add(1)
	return nil, fmt.Errorf("httpclient: %s %s failed after %d attempts: %w", req.Method, req.URL, retries+1, lastErr)
}

// retryable reports whether req can be re-sent without side effects: a
// bodyless request, or one whose body can be rewound via GetBody.
func retryable(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	return req.GetBody != nil
}

// transientStatus reports whether status indicates a failure worth
// re-attempting against the same endpoint.
func transientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoff(cfg Config, attempt int) time.Duration {
	wait := cfg.RetryMinWait << (attempt - 1)
	if wait > cfg.RetryMaxWait || wait <= 0 {
		wait = cfg.RetryMaxWait
	}
	return wait
}

// decodeBody swaps resp.Body for a decoding reader when the server
// negotiated a compressed encoding.
func decodeBody(resp *http.Response) error {
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		resp.Body = decodedBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.ContentLength = -1
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("httpclient: gzip response: %w", err)
		}
		resp.Body = decodedBody{Reader: zr, closer: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.ContentLength = -1
	}
	return nil
}

// decodedBody pairs a decompressing reader with the underlying
// network body so Close releases the connection.
type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b decodedBody) Close() error { return b.closer.Close() }
