package rest

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Default retry policy values. These match the rate-limit behavior that the
// resource service advertises for its API endpoints.
const (
	DefaultMaxRetries              = 3
	DefaultInitialBackoff          = time.Second
	DefaultMaxBackoff              = 30 * time.Second
	DefaultBackoffMultiplier       = 2.0
	DefaultCircuitBreakerThreshold = 5
)

// jitterFactorRange is the ±20% perturbation applied to computed backoff times
// so that many clients retrying at once do not synchronize.
const (
	jitterFactorMin = 0.8
	jitterFactorMax = 1.2
)

// RetryPolicy configures how the client reacts to 429 responses. A zero value
// is not usable; construct one with DefaultRetryPolicy and override fields as
// needed. Policies are immutable for the lifetime of a Client.
type RetryPolicy struct {
	// MaxRetries is the maximum number of additional attempts after the first
	// one. Zero means a single 429 is returned immediately.
	MaxRetries int

	// InitialBackoff is the wait before the first retry when the server did
	// not send a Retry-After hint.
	InitialBackoff time.Duration

	// MaxBackoff caps every computed wait, including server-supplied hints.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor between retries.
	BackoffMultiplier float64

	// Jitter, when true, multiplies each computed wait by a random factor in
	// [0.8, 1.2]. Tests that need deterministic timing should disable it.
	Jitter bool

	// CircuitBreakerThreshold is the number of consecutive 429 responses,
	// across all logical requests on one client, after which the client stops
	// retrying and fails fast.
	CircuitBreakerThreshold int
}

// DefaultRetryPolicy returns the policy used when Config.Retry is left unset.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:              DefaultMaxRetries,
		InitialBackoff:          DefaultInitialBackoff,
		MaxBackoff:              DefaultMaxBackoff,
		BackoffMultiplier:       DefaultBackoffMultiplier,
		Jitter:                  true,
		CircuitBreakerThreshold: DefaultCircuitBreakerThreshold,
	}
}

// Validate reports a configuration error for values that could make the retry
// loop misbehave. It is called by NewClient so bad policies are rejected at
// construction time rather than on first use.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("retry policy: MaxRetries must be >= 0, got %d", p.MaxRetries)
	}
	if p.InitialBackoff < 0 {
		return fmt.Errorf("retry policy: InitialBackoff must be >= 0, got %v", p.InitialBackoff)
	}
	if p.MaxBackoff < 0 {
		return fmt.Errorf("retry policy: MaxBackoff must be >= 0, got %v", p.MaxBackoff)
	}
	if p.BackoffMultiplier < 1 {
		return fmt.Errorf("retry policy: BackoffMultiplier must be >= 1, got %v", p.BackoffMultiplier)
	}
	if p.CircuitBreakerThreshold < 1 {
		return fmt.Errorf("retry policy: CircuitBreakerThreshold must be >= 1, got %d",
			p.CircuitBreakerThreshold)
	}
	return nil
}

// ParseRetryAfter interprets a Retry-After header value per RFC 7231: either
// delta-seconds ("120") or an HTTP-date ("Wed, 21 Oct 2026 07:28:00 GMT", in
// which case the result is the time remaining until that date, floored at
// zero). The second return value is false when the header is empty, negative,
// or unparsable in both formats; that is a normal outcome, not an error, and
// callers fall back to computed backoff.
//
// Large parseable values are returned as-is. Capping against the policy
// ceiling happens in ComputeBackoff, not here.
func ParseRetryAfter(headerValue string) (time.Duration, bool) {
	value := strings.TrimSpace(headerValue)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	if date, err := http.ParseTime(value); err == nil {
		delta := time.Until(date)
		if delta < 0 {
			delta = 0
		}
		return delta, true
	}
	return 0, false
}

// ComputeBackoff returns the wait before retry number attempt+1. When the
// server supplied a Retry-After hint, the hint (capped at MaxBackoff) wins
// over the exponential formula. The exponential term saturates at MaxBackoff
// before conversion, so arbitrarily large attempt values cannot overflow.
//
// Jitter is applied after the cap, so a jittered result may exceed MaxBackoff
// by up to 20%. The result is never negative.
func (p RetryPolicy) ComputeBackoff(attempt int, retryAfter time.Duration, haveRetryAfter bool) time.Duration {
	var backoff time.Duration
	if haveRetryAfter {
		backoff = retryAfter
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	} else {
		seconds := p.InitialBackoff.Seconds() * math.Pow(p.BackoffMultiplier, float64(attempt))
		if ceiling := p.MaxBackoff.Seconds(); seconds > ceiling || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
			seconds = ceiling
		}
		backoff = time.Duration(seconds * float64(time.Second))
	}
	if backoff < 0 {
		backoff = 0
	}
	if p.Jitter {
		factor := jitterFactorMin + rand.Float64()*(jitterFactorMax-jitterFactorMin)
		backoff = time.Duration(float64(backoff) * factor)
	}
	return backoff
}
