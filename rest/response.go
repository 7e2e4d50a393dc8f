package rest

import (
	"net/http"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is the immutable outcome of one logical request. It is constructed
// once by the client and then only read; tests own their Response values and
// never share mutable state through them.
type Response struct {
	// StatusCode is the HTTP status of the final physical attempt.
	StatusCode int

	// Body is the parsed JSON body. It is ldvalue.Null() when the response had
	// no body (such as 204 No Content) or the body was not valid JSON; an
	// unparsable body is tolerated rather than failing the whole request.
	Body ldvalue.Value

	// Headers are the response headers of the final attempt. Lookups through
	// http.Header are case-insensitive.
	Headers http.Header

	// AttemptElapsed is the wall-clock duration of the final physical attempt
	// only. Use it for latency assertions about the service itself.
	AttemptElapsed time.Duration

	// TotalElapsed is the wall-clock duration of the whole logical request,
	// including every earlier attempt and the backoff waits between them.
	TotalElapsed time.Duration

	// RetryCount is the number of retries performed to produce this response;
	// zero means the first attempt was also the last.
	RetryCount int

	// WasRateLimited is true when the logical request ended while still rate
	// limited: the final attempt returned 429 and either retrying was
	// disabled, the retry budget ran out, or the circuit breaker tripped.
	WasRateLimited bool
}

// IsSuccess reports whether the status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError reports whether the status is 4xx.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError reports whether the status is 5xx.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// IsRateLimited reports whether the status is 429 Too Many Requests.
func (r *Response) IsRateLimited() bool {
	return r.StatusCode == http.StatusTooManyRequests
}

// RetryAfter parses this response's Retry-After header. The second return
// value is false when the header is missing or unparsable.
func (r *Response) RetryAfter() (time.Duration, bool) {
	return ParseRetryAfter(r.Headers.Get("Retry-After"))
}
