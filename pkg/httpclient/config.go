package httpclient

import "time"

// Config shapes one outbound client: connection pool bounds, the
// per-request budget, and the transient-status retry policy applied to
// requests that can be re-sent.
type Config struct {
	// RequestTimeout bounds one attempt, not the whole retry chain.
	RequestTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// MaxRetries is the number of re-attempts after the first try.
	// Zero takes the default; a negative value disables retries. Only
	// requests without a body, or with a body rewindable through
	// GetBody, are retried.
	MaxRetries   int
	RetryMinWait time.Duration
	RetryMaxWait time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// DisableCompression turns off the br/gzip Accept-Encoding
	// negotiation and transparent response decoding.
	DisableCompression bool
}

// DefaultConfig returns the bounds used by generated client steps when
// the caller supplies nothing.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:      30 * time.Second,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		MaxRetries:          3,
		RetryMinWait:        100 * time.Millisecond,
		RetryMaxWait:        2 * time.Second,
		UserAgent:           "corepipe-httpclient",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = d.MaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = d.IdleConnTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryMinWait <= 0 {
		c.RetryMinWait = d.RetryMinWait
	}
	if c.RetryMaxWait < c.RetryMinWait {
		c.RetryMaxWait = d.RetryMaxWait
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
