package highlightly

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/platform/resilience"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

const (
	defaultBaseURL  = "https://soccer.highlightly.net"
	apiKeyHeader    = "x-rapidapi-key"
	maxResponseSize = 6 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`(?i)(api_?key|token)=[^&\s"']+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	CallDelay      time.Duration
	RateLimit      resilience.RateLimitConfig
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger

	// Now and Sleep replace the wall clock; tests drive them by hand.
	Now   func() time.Time
	Sleep resilience.Sleeper
}

// Client is the only path to the provider. Every attempt passes the fixed
// call delay and the sliding-window budget before it is sent.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	callDelay      time.Duration
	limiter        *resilience.SlidingWindowLimiter
	retry          resilience.RetryPolicy
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
	sleep          resilience.Sleeper
	calls          atomic.Int64
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = resilience.SleepContext
	}
	limiter := resilience.NewSlidingWindowLimiter(cfg.RateLimit).WithClock(cfg.Now, sleep)

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg)
	breaker.OnTransition(func(from, to resilience.CircuitState) {
		logger.Warn("highlightly circuit breaker transition", "from", string(from), "to", string(to))
	})

	callDelay := cfg.CallDelay
	if callDelay < 0 {
		callDelay = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		callDelay:      callDelay,
		limiter:        limiter,
		retry:          resilience.NormalizeRetryPolicy(cfg.Retry),
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
		sleep:          sleep,
	}
}

// CallCount is the number of HTTP attempts sent since construction.
func (c *Client) CallCount() int64 {
	return c.calls.Load()
}

// WindowCalls is the number of attempts still counted against the rate window.
func (c *Client) WindowCalls() int {
	return c.limiter.InWindow()
}

// Call fetches endpoint with params and returns the raw JSON body. Retryable
// failures are retried per the policy; the last error is returned once the
// retries are spent.
func (c *Client) Call(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	fullURL := c.buildURL(endpoint, params)

	raw, err := resilience.Retry(ctx, c.retry, c.sleep, classifyCallError, func(attempt int) ([]byte, error) {
		return c.attempt(ctx, endpoint, fullURL, attempt)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "highlightly request failed",
			"endpoint", endpoint,
			"url", redactURL(fullURL),
			"status", usecase.HTTPStatus(err),
			"call_count", c.CallCount(),
			"error", err,
		)
		return nil, err
	}
	return raw, nil
}

// CallJSON is Call followed by decoding into target.
func (c *Client) CallJSON(ctx context.Context, endpoint string, params url.Values, target any) ([]byte, error) {
	raw, err := c.Call(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return raw, usecase.MarkValidation(fmt.Errorf("decode %s payload: %w", endpoint, err))
	}
	return raw, nil
}

func (c *Client) attempt(ctx context.Context, endpoint, fullURL string, attempt int) ([]byte, error) {
	if c.callDelay > 0 {
		if err := c.sleep(ctx, c.callDelay); err != nil {
			return nil, err
		}
	}
	waited, err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if waited > 0 {
		c.logger.InfoContext(ctx, "highlightly rate budget exhausted, waited for window",
			"endpoint", endpoint,
			"waited", waited.String(),
			"budget", c.limiter.Limit(),
			"window", c.limiter.Window().String(),
		)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, crerr.Mark(
				fmt.Errorf("%s: provider is temporarily unavailable: %w", endpoint, err),
				usecase.ErrDependencyUnavailable,
			)
		}
	}

	c.calls.Add(1)
	started := time.Now()
	raw, err := c.send(ctx, endpoint, fullURL)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	if err != nil {
		if usecase.IsRetryable(err) && attempt < c.retry.MaxRetries {
			c.logger.WarnContext(ctx, "highlightly request will be retried",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"status", usecase.HTTPStatus(err),
				"error", err,
			)
		}
		return nil, err
	}

	c.logger.DebugContext(ctx, "highlightly request completed",
		"endpoint", endpoint,
		"attempt", attempt+1,
		"bytes", len(raw),
		"duration", time.Since(started).String(),
	)
	return raw, nil
}

func (c *Client) send(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, usecase.MarkTransient(fmt.Errorf("%s: send request: %s", endpoint, sanitizeSensitiveText(err.Error(), c.apiKey)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, usecase.MarkTransient(fmt.Errorf("%s: read response body: %w", endpoint, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, usecase.NewHTTPError(endpoint, resp.StatusCode, abbreviateBody(raw))
	}
	if !sonic.Valid(raw) {
		return nil, usecase.MarkValidation(fmt.Errorf("%s: provider returned invalid json: %s", endpoint, abbreviateBody(raw)))
	}
	return raw, nil
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	path := "/" + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	fullURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return fullURL
}

func classifyCallError(err error) resilience.RetryClass {
	switch {
	case crerr.Is(err, context.Canceled), crerr.Is(err, context.DeadlineExceeded):
		return resilience.RetryNever
	case crerr.Is(err, usecase.ErrRateLimited):
		return resilience.RetryRateLimited
	case crerr.Is(err, usecase.ErrTransientHTTP):
		return resilience.RetryTransient
	default:
		return resilience.RetryNever
	}
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, usecase.ErrTransientHTTP)
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	for key := range query {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "key") || strings.Contains(lower, "token") {
			query.Set(key, "REDACTED")
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
