// Package apfed implements the core of a reusable ActivityPub federation
// framework: HTTP-signature signing and verification, typed remote-object
// dereferencing, an outbound delivery queue, and inbound activity receipt.
// Applications own their data schema; this package supplies the federation
// machinery around it.
package apfed

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// URLVerifier is invoked before every outbound GET and every delivery. It
// may reject a URL by returning a non-nil error; the error is wrapped in
// ErrUrlBlocked by callers.
type URLVerifier func(ctx context.Context, rawURL string) error

// AllowAllURLs is a URLVerifier that never rejects. Useful as a default in
// tests and single-tenant deployments.
func AllowAllURLs(context.Context, string) error { return nil }

// SignedFetchActor identifies the local actor used to sign outbound GETs
// when Config.signedFetchActor is set.
type SignedFetchActor struct {
	KeyID      string // e.g. "https://example.com/users/alice#main-key"
	PrivateKey string // PEM-encoded RSA private key
}

// Config is the immutable, process-wide federation configuration. Build one
// with NewConfig and share it across every RequestData derived from it.
type Config struct {
	domain               string
	applicationData      any
	httpSignatureCompat  bool
	httpFetchLimit       int
	workerCount          int
	retryWorkerCount     int
	requestTimeout       time.Duration
	debug                bool
	allowHTTPHosts       map[string]bool
	urlVerifier          URLVerifier
	signedFetchActor     *SignedFetchActor
	queueBoundCapacity   int
	httpClient           *http.Client
}

// Option configures a Config under construction.
type Option func(*Config)

// WithApplicationData attaches an opaque value threaded through to user
// code via RequestData.AppData.
func WithApplicationData(data any) Option {
	return func(c *Config) { c.applicationData = data }
}

// WithHTTPFetchLimit sets the per-RequestData outbound-GET budget. Default 50.
func WithHTTPFetchLimit(n int) Option {
	return func(c *Config) { c.httpFetchLimit = n }
}

// WithWorkerCount sets the number of parallel first-attempt delivery
// workers. Default 64.
func WithWorkerCount(n int) Option {
	return func(c *Config) { c.workerCount = n }
}

// WithRetryWorkerCount sets the number of parallel retry-delivery workers.
func WithRetryWorkerCount(n int) Option {
	return func(c *Config) { c.retryWorkerCount = n }
}

// WithQueueBoundCapacity sets the backpressure bound on the outbound queue.
func WithQueueBoundCapacity(n int) Option {
	return func(c *Config) { c.queueBoundCapacity = n }
}

// WithDebug permits plain HTTP and inlines delivery synchronously.
func WithDebug(debug bool) Option {
	return func(c *Config) { c.debug = debug }
}

// WithAllowHTTP allows plain HTTP for the given hosts even outside debug
// mode.
func WithAllowHTTP(hosts ...string) Option {
	return func(c *Config) {
		if c.allowHTTPHosts == nil {
			c.allowHTTPHosts = make(map[string]bool, len(hosts))
		}
		for _, h := range hosts {
			c.allowHTTPHosts[h] = true
		}
	}
}

// WithURLVerifier installs a predicate invoked before outbound GETs and
// deliveries.
func WithURLVerifier(v URLVerifier) Option {
	return func(c *Config) { c.urlVerifier = v }
}

// WithSignedFetchActor causes outbound GETs to be signed with the given
// actor's key.
func WithSignedFetchActor(actor SignedFetchActor) Option {
	return func(c *Config) { c.signedFetchActor = &actor }
}

// WithHTTPSignatureCompat selects the Mastodon-compatible signing/verifying
// base string.
func WithHTTPSignatureCompat(compat bool) Option {
	return func(c *Config) { c.httpSignatureCompat = compat }
}

// WithRequestTimeout bounds every outbound fetch and delivery attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.requestTimeout = d }
}

// WithHTTPClient overrides the shared *http.Client used for fetches and
// deliveries. Mostly useful in tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.httpClient = client }
}

// NewConfig builds an immutable Config for the given local domain.
func NewConfig(domain string, opts ...Option) (*Config, error) {
	c := &Config{
		domain:             domain,
		httpFetchLimit:     50,
		workerCount:        64,
		retryWorkerCount:   16,
		requestTimeout:     10 * time.Second,
		queueBoundCapacity: 1024,
		urlVerifier:        AllowAllURLs,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.domain == "" {
		return nil, fmt.Errorf("%w: domain must not be empty", ErrConfigInvalid)
	}
	if c.workerCount < 1 {
		return nil, fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrConfigInvalid, c.workerCount)
	}
	if c.retryWorkerCount < 1 {
		c.retryWorkerCount = 1
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.requestTimeout}
	}
	return c, nil
}

// Domain returns the local host this server identifies as.
func (c *Config) Domain() string { return c.domain }

// Debug reports whether the config was built with WithDebug(true).
func (c *Config) Debug() bool { return c.debug }

// HTTPSignatureCompat reports whether Mastodon-compatible signature
// handling is enabled.
func (c *Config) HTTPSignatureCompat() bool { return c.httpSignatureCompat }

// RequestTimeout returns the per-attempt timeout applied to fetches and
// deliveries.
func (c *Config) RequestTimeout() time.Duration { return c.requestTimeout }

// WorkerCount returns the configured first-attempt delivery concurrency.
func (c *Config) WorkerCount() int { return c.workerCount }

// RetryWorkerCount returns the configured retry delivery concurrency.
func (c *Config) RetryWorkerCount() int { return c.retryWorkerCount }

// QueueBoundCapacity returns the backpressure bound for the outbound queue.
func (c *Config) QueueBoundCapacity() int { return c.queueBoundCapacity }

// SignedFetchActor returns the actor identity used to sign outbound GETs,
// or nil if fetches are unsigned.
func (c *Config) SignedFetchActor() *SignedFetchActor { return c.signedFetchActor }

// HTTPClient returns the shared, pooled HTTP client.
func (c *Config) HTTPClient() *http.Client { return c.httpClient }

// URLVerifier returns the configured verifier, never nil.
func (c *Config) URLVerifier() URLVerifier { return c.urlVerifier }

// AllowsPlainHTTP reports whether http:// URLs are permitted for the given
// host: true when debug mode is on, or the host was named in
// WithAllowHTTP.
func (c *Config) AllowsPlainHTTP(host string) bool {
	if c.debug {
		return true
	}
	return c.allowHTTPHosts[host]
}

// IsLocalDomain reports whether host equals this server's own domain.
func (c *Config) IsLocalDomain(host string) bool {
	return host == c.domain
}
