package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

const (
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 10 * time.Second
	// MaxResponseBytes caps the upstream body relayed to callers.
	MaxResponseBytes = 4 << 20
)

// Failure kinds. Returned errors wrap exactly one of these.
var (
	ErrInvalidQuery    = apperrors.NewDomainError(apperrors.CodeValidation, "invalid search query", http.StatusBadRequest, nil)
	ErrUpstream        = apperrors.NewDomainError(apperrors.CodeUpstream, "search provider unavailable", http.StatusBadGateway, nil)
	ErrUpstreamTimeout = apperrors.NewDomainError(apperrors.CodeUpstreamTimeout, "search provider timed out", http.StatusGatewayTimeout, nil)
)

// Endpoint is a fixed upstream search API.
type Endpoint struct {
	Name    string
	URL     string
	Headers map[string]string
}

// Cache stores upstream responses. A miss is reported as ok=false.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client forwards query parameters to one Endpoint and relays its JSON.
type Client struct {
	endpoint Endpoint
	http     *http.Client
	timeout  time.Duration
	cache    Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCache enables response caching. A non-positive ttl leaves caching off.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if cache != nil && ttl > 0 {
			c.cache = cache
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient initializes a client for endpoint.
func NewClient(endpoint Endpoint, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		timeout:  DefaultTimeout,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the endpoint name.
func (c *Client) Name() string {
	return c.endpoint.Name
}

// Search encodes params as a query string, calls the endpoint and returns
// the response body unchanged.
func (c *Client) Search(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	query, err := EncodeQuery(params)
	if err != nil {
		return nil, err
	}

	key := c.cacheKey(query)
	if body, ok := c.cached(ctx, key); ok {
		return body, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.fetch(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamTimeout, c.endpoint.Name, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, c.endpoint.Name, err)
	}

	c.store(ctx, key, body)
	return body, nil
}

func (c *Client) fetch(ctx context.Context, query string) (json.RawMessage, error) {
	target := c.endpoint.URL
	if query != "" {
		target += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.endpoint.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBytes))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseBytes)
	}
	if !json.Valid(body) {
		return nil, errors.New("response is not valid JSON")
	}

	c.log.Debug("search upstream response",
		zap.String("endpoint", c.endpoint.Name),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("search:%s:%s", c.endpoint.Name, hex.EncodeToString(sum[:]))
}

func (c *Client) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok || !json.Valid(body) {
		return nil, false
	}
	return body, true
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		c.log.Warn("search cache write failed", zap.String("key", key), zap.Error(err))
	}
}
