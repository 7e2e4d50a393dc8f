package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Config is passed to NewClient. BaseURL is the only required field.
type Config struct {
	// BaseURL is the scheme://host[:port] of the resource service.
	BaseURL string

	// APIPrefix is the fixed path prefix joined between BaseURL and every
	// endpoint, such as "/myapp/api".
	APIPrefix string

	// RequestTimeout bounds each physical attempt. A timeout surfaces as a
	// transport error, not as a 429, and is not retried. Defaults to 30s.
	RequestTimeout time.Duration

	// DefaultHeaders are attached to every request. Per-request headers win
	// on conflict. Use this for an Authorization header when the service
	// requires one.
	DefaultHeaders map[string]string

	// Retry configures 429 handling. Defaults to DefaultRetryPolicy().
	Retry RetryPolicy

	// Metrics receives rate-limit events. When nil, the client owns a fresh
	// collector; pass a shared one to aggregate across clients.
	Metrics *RateLimitMetrics

	// HTTPClient optionally replaces the underlying transport, mainly so
	// tests can route requests to an in-process handler.
	HTTPClient *http.Client

	// Logger receives debug output. Defaults to a no-op logger.
	Logger logging.Logger
}

// Client issues logical requests against the resource service, transparently
// retrying on 429 according to its RetryPolicy. A single Client may be used
// from concurrent goroutines; the only state shared across logical requests
// is the metrics collector and the circuit-breaker counter, both of which are
// updated atomically.
type Client struct {
	baseURL        string
	apiPrefix      string
	httpClient     *http.Client
	requestTimeout time.Duration
	defaultHeaders map[string]string
	policy         RetryPolicy
	metrics        *RateLimitMetrics
	logger         logging.Logger

	// consecutiveRateLimits counts 429s seen in a row across the whole
	// session; any non-429 response resets it.
	consecutiveRateLimits int32
}

// NewClient validates the configuration and returns a ready-to-use client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("client config: BaseURL is required")
	}
	policy := config.Retry
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = NewRateLimitMetrics()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := config.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NullLogger()
	}
	headers := make(map[string]string, len(config.DefaultHeaders))
	for k, v := range config.DefaultHeaders {
		headers[k] = v
	}
	return &Client{
		baseURL:        strings.TrimSuffix(config.BaseURL, "/"),
		apiPrefix:      normalizePrefix(config.APIPrefix),
		httpClient:     httpClient,
		requestTimeout: timeout,
		defaultHeaders: headers,
		policy:         policy,
		metrics:        metrics,
		logger:         logger,
	}, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// Metrics returns the rate-limit collector for this client session.
func (c *Client) Metrics() *RateLimitMetrics {
	return c.metrics
}

// RetryPolicy returns the policy the client was built with.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.policy
}

// EndpointURL returns the absolute URL for a relative endpoint path.
func (c *Client) EndpointURL(endpoint string) string {
	return c.baseURL + c.apiPrefix + "/" + strings.TrimPrefix(endpoint, "/")
}

type requestParams struct {
	headers             map[string]string
	allowRateLimitRetry bool
}

// RequestOption modifies a single logical request.
type RequestOption func(*requestParams)

// WithHeader attaches one extra header to the request, overriding any default
// header of the same name.
func WithHeader(name, value string) RequestOption {
	return func(p *requestParams) {
		if p.headers == nil {
			p.headers = make(map[string]string)
		}
		p.headers[name] = value
	}
}

// WithHeaders attaches several extra headers to the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(p *requestParams) {
		if p.headers == nil {
			p.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			p.headers[k] = v
		}
	}
}

// WithoutRetry disables the 429 retry loop for this request: the first 429 is
// returned immediately with RetryCount zero, and neither the metrics nor the
// circuit-breaker state are touched.
func WithoutRetry() RequestOption {
	return func(p *requestParams) {
		p.allowRateLimitRetry = false
	}
}

// Get issues a GET request to the endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, opts)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, endpoint string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body, opts)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, endpoint string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body, opts)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, endpoint string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, endpoint, body, opts)
}

// Delete issues a DELETE request to the endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, opts)
}

// do runs one logical request as a bounded sequence of physical attempts.
// The loop is deliberately iterative: attempt runs from 0 to MaxRetries
// inclusive, and every suspension honors ctx cancellation.
func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, opts []RequestOption) (*Response, error) {
	params := requestParams{allowRateLimitRetry: true}
	for _, opt := range opts {
		opt(&params)
	}

	var encoded []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s request body: %w", method, endpoint, err)
		}
		encoded = data
	}

	url := c.EndpointURL(endpoint)
	requestID := uuid.NewString()
	start := time.Now()

	for attempt := 0; ; attempt++ {
		resp, err := c.dispatch(ctx, method, url, encoded, params.headers, requestID)
		if err != nil {
			return nil, err
		}
		resp.RetryCount = attempt
		resp.TotalElapsed = time.Since(start)

		if !resp.IsRateLimited() {
			atomic.StoreInt32(&c.consecutiveRateLimits, 0)
			return resp, nil
		}

		if !params.allowRateLimitRetry {
			// An intentionally-unretried probe must not poison breaker or
			// metrics state shared with concurrent logical requests.
			resp.WasRateLimited = true
			return resp, nil
		}

		consecutive := int(atomic.AddInt32(&c.consecutiveRateLimits, 1))
		if consecutive >= c.policy.CircuitBreakerThreshold {
			c.metrics.RecordRateLimit(0)
			c.logger.Printf("%s %s: circuit breaker tripped after %d consecutive 429s (request %s)",
				method, url, consecutive, requestID)
			resp.WasRateLimited = true
			return resp, nil
		}
		if attempt >= c.policy.MaxRetries {
			c.metrics.RecordRateLimit(0)
			c.logger.Printf("%s %s: retry budget exhausted after %d retries (request %s)",
				method, url, attempt, requestID)
			resp.WasRateLimited = true
			return resp, nil
		}

		hint, haveHint := resp.RetryAfter()
		backoff := c.policy.ComputeBackoff(attempt, hint, haveHint)
		c.metrics.RecordRateLimit(backoff)
		c.metrics.RecordRetry()
		c.logger.Printf("%s %s: 429, waiting %v before retry %d/%d (request %s)",
			method, url, backoff, attempt+1, c.policy.MaxRetries, requestID)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, fmt.Errorf("%s %s: canceled during backoff: %w", method, url, err)
		}
	}
}

// dispatch performs one physical attempt and returns a provisional Response.
// Any connection, timeout, or body-read failure is a transport error.
func (c *Client) dispatch(ctx context.Context, method, url string, body []byte,
	extraHeaders map[string]string, requestID string) (*Response, error) {

	attemptCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s request to %s: %w", method, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	attemptStart := time.Now()
	httpResp, err := c.httpClient.Do(req)
	elapsed := time.Since(attemptStart)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response body: %w", method, url, err)
	}

	bodyValue := ldvalue.Null()
	if len(bytes.TrimSpace(data)) > 0 {
		// ldvalue.Parse yields Null for malformed JSON; an unparsable body is
		// tolerated rather than failing the request, since responses like 204
		// legitimately have no body at all.
		bodyValue = ldvalue.Parse(data)
	}

	return &Response{
		StatusCode:     httpResp.StatusCode,
		Body:           bodyValue,
		Headers:        httpResp.Header,
		AttemptElapsed: elapsed,
	}, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
