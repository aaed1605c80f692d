package news

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the feed HTTP client
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // consecutive failures before the breaker opens
	CircuitResetAfter time.Duration
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         5.0,
		CircuitBreakerMax: 5,
		CircuitResetAfter: time.Minute,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	resetAfter        time.Duration
	logger            *logrus.Entry

	mu                sync.Mutex
	consecutiveErrors int
	openedAt          time.Time
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, log *logrus.Logger) *RateLimitedHTTPClient {
	log = logger.OrDiscard(log)

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy
	retryClient.Logger = nil

	breakerMax := cfg.CircuitBreakerMax
	if breakerMax <= 0 {
		breakerMax = 1
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		circuitBreakerMax: breakerMax,
		resetAfter:        cfg.CircuitResetAfter,
		logger:            log.WithField("component", "news_http"),
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.allow(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(retryReq)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.consecutiveErrors++
		c.lastError = err
		if c.consecutiveErrors >= c.circuitBreakerMax && c.openedAt.IsZero() {
			c.openedAt = time.Now()
			c.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive errors", c.consecutiveErrors)
		}
		return nil, err
	}
	if resp.StatusCode < 500 {
		c.consecutiveErrors = 0
		c.openedAt = time.Time{}
	}
	return resp, nil
}

// Get executes a GET request with optional headers
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// allow rejects requests while the breaker is open. After resetAfter one
// request is let through to probe the endpoint.
func (c *RateLimitedHTTPClient) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openedAt.IsZero() {
		return nil
	}
	if c.resetAfter > 0 && time.Since(c.openedAt) >= c.resetAfter {
		c.openedAt = time.Time{}
		c.consecutiveErrors = c.circuitBreakerMax - 1
		return nil
	}
	return fmt.Errorf("circuit breaker open: %v", c.lastError)
}

// retryPolicy retries network errors, 429 and 5xx gateway failures
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, err
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}
