package apitests

import (
	"context"
	"net/http"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/trainingportal/rest-contract-tests/rest"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

// fastRetryPolicy keeps the deterministic rate-limit scenarios quick: real
// backoff growth, millisecond scale, no jitter.
func fastRetryPolicy() rest.RetryPolicy {
	return rest.RetryPolicy{
		MaxRetries:              3,
		InitialBackoff:          5 * time.Millisecond,
		MaxBackoff:              50 * time.Millisecond,
		BackoffMultiplier:       2.0,
		Jitter:                  false,
		CircuitBreakerThreshold: 5,
	}
}

func rateLimitedHandler(retryAfter string) http.Handler {
	headers := make(http.Header)
	if retryAfter != "" {
		headers.Set("Retry-After", retryAfter)
	}
	return httphelpers.HandlerWithResponse(http.StatusTooManyRequests, headers,
		[]byte(`{"detail": "Request was throttled."}`))
}

func memberPageHandler() http.Handler {
	return httphelpers.HandlerWithJSONResponse(servicedef.Page{Count: 0}, nil)
}

func DoRateLimitTests(t *T) {
	t.Run("single 429 then success is retried once", func(t *T) {
		handler, requests := httphelpers.RecordingHandler(
			httphelpers.SequentialHandler(
				rateLimitedHandler("0"),
				memberPageHandler(),
			))
		endpoint := t.NewMockEndpoint(handler)
		client := t.NewClientForEndpoint(endpoint, fastRetryPolicy())

		resp, err := client.Get(context.Background(), servicedef.MembersCollection)
		require.NoError(t, err)

		rest.Validate(t, resp).StatusCode(200).NotRateLimited()
		assert.Equal(t, 1, resp.RetryCount)
		assert.False(t, resp.WasRateLimited)
		assert.Equal(t, 2, len(requests), "expected exactly two physical attempts")
		assert.Equal(t, 1, client.Metrics().TotalRateLimited())
		assert.Equal(t, 1, client.Metrics().TotalRetries())
	})

	t.Run("circuit breaker trips after consecutive 429s", func(t *T) {
		handler, requests := httphelpers.RecordingHandler(rateLimitedHandler(""))
		endpoint := t.NewMockEndpoint(handler)
		policy := fastRetryPolicy()
		policy.MaxRetries = 10 // budget alone would keep going; the breaker must stop it
		client := t.NewClientForEndpoint(endpoint, policy)

		resp, err := client.Get(context.Background(), servicedef.MembersCollection)
		require.NoError(t, err)

		rest.Validate(t, resp).RateLimited()
		assert.True(t, resp.WasRateLimited)
		attempts := len(requests)
		assert.LessOrEqual(t, attempts, policy.CircuitBreakerThreshold,
			"breaker should cap physical attempts at the threshold")
		assert.Equal(t, policy.CircuitBreakerThreshold, client.Metrics().TotalRateLimited())
	})

	t.Run("retry budget exhaustion returns the final 429", func(t *T) {
		handler, requests := httphelpers.RecordingHandler(rateLimitedHandler(""))
		endpoint := t.NewMockEndpoint(handler)
		policy := fastRetryPolicy()
		policy.MaxRetries = 2
		policy.CircuitBreakerThreshold = 100
		client := t.NewClientForEndpoint(endpoint, policy)

		resp, err := client.Get(context.Background(), servicedef.MembersCollection)
		require.NoError(t, err)

		rest.Validate(t, resp).RateLimited()
		assert.True(t, resp.WasRateLimited)
		assert.Equal(t, policy.MaxRetries, resp.RetryCount)
		assert.Equal(t, policy.MaxRetries+1, len(requests))
		assert.Equal(t, policy.MaxRetries, client.Metrics().TotalRetries())
	})

	t.Run("disabling retry returns the first 429 immediately", func(t *T) {
		handler, requests := httphelpers.RecordingHandler(rateLimitedHandler("30"))
		endpoint := t.NewMockEndpoint(handler)
		client := t.NewClientForEndpoint(endpoint, fastRetryPolicy())

		start := time.Now()
		resp, err := client.Get(context.Background(), servicedef.MembersCollection,
			rest.WithoutRetry())
		require.NoError(t, err)

		rest.Validate(t, resp).RateLimited()
		assert.True(t, resp.WasRateLimited)
		assert.Equal(t, 0, resp.RetryCount)
		assert.Equal(t, 1, len(requests))
		assert.Less(t, time.Since(start), 2*time.Second,
			"a retry-disabled 429 must not suspend execution")
		assert.Equal(t, 0, client.Metrics().TotalRateLimited(),
			"an unretried probe must not record metrics")
	})

	t.Run("Retry-After hint drives the wait, capped at the ceiling", func(t *T) {
		// Retry-After asks for 3600s; the 50ms ceiling must win or this test
		// would hang far past the runner's patience.
		handler, _ := httphelpers.RecordingHandler(
			httphelpers.SequentialHandler(
				rateLimitedHandler("3600"),
				memberPageHandler(),
			))
		endpoint := t.NewMockEndpoint(handler)
		client := t.NewClientForEndpoint(endpoint, fastRetryPolicy())

		start := time.Now()
		resp, err := client.Get(context.Background(), servicedef.MembersCollection)
		require.NoError(t, err)

		rest.Validate(t, resp).StatusCode(200)
		assert.Less(t, time.Since(start), 5*time.Second)
		backoff := client.Metrics().MaxBackoff()
		assert.LessOrEqual(t, backoff, fastRetryPolicy().MaxBackoff)
	})

	t.Run("paced burst against the live service is survivable", func(t *T) {
		t.RequireResource(servicedef.MembersCollection)

		const burstSize = 20
		limiter := rate.NewLimiter(rate.Limit(50), 1)

		for i := 0; i < burstSize; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
			resp := t.MustGet(servicedef.MembersCollection)
			// Rate limiting is a legal outcome here; what must hold is the
			// client's bookkeeping around it.
			if resp.IsRateLimited() {
				assert.True(t, resp.WasRateLimited)
				assert.LessOrEqual(t, resp.RetryCount, t.client.RetryPolicy().MaxRetries)
			} else {
				rest.Validate(t, resp).Success()
			}
		}
		t.Debug("burst metrics: %s", t.client.Metrics())
	})
}
